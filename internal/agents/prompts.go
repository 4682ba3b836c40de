package agents

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// defaultPrompts are the built-in system prompts, used when no override
// file exists in the prompts directory.
var defaultPrompts = map[string]string{
	"query_analysis": `You analyze travel requests. Extract the origin, destination, travel dates
(YYYY-MM-DD), traveler count, budget and currency, and the traveler's
preferences (travel style, accommodation type, interests, pace, dietary
needs). Reply with a single JSON object:
{"origin": "", "destination": "", "depart_date": "", "return_date": "",
 "travelers": 0, "budget": 0, "currency": "",
 "preferences": {"travel_style": "", "accommodation_type": "",
                 "interests": [], "pace": "", "dietary_needs": []},
 "confidence": 0.0}
Set confidence below 0.5 when the destination is missing or ambiguous.`,

	"destination_research": `You are a destination research specialist. Given a travel request and web
research context, recommend or profile a destination. Reply with a single
JSON object:
{"destination": "", "summary": "", "highlights": [], "best_season": "",
 "advisories": []}`,

	"flight_search": `You are a flight search specialist. Produce realistic flight options for
the given route and dates. Reply with a JSON array of:
{"airline": "", "flight_number": "", "depart": "", "arrive": "",
 "stops": 0, "price": 0, "currency": ""}`,

	"accommodation_search": `You are an accommodation specialist. Produce realistic lodging options for
the destination and dates. Reply with a JSON array of:
{"name": "", "kind": "", "location": "", "price_per_night": 0,
 "currency": "", "rating": 0}`,

	"transportation_planning": `You plan local transportation at a destination. Reply with a single JSON
object:
{"summary": "", "options": [{"mode": "", "description": "",
 "estimated_cost": 0}]}`,

	"activity_planning": `You build daily itineraries. Given a destination, trip length, and
interests, reply with a JSON array of:
{"day": 1, "activities": [{"name": "", "description": "", "category": "",
 "duration_hours": 0, "cost": 0}]}`,

	"budget_management": `You review a travel plan's costs against the traveler's budget. Reply with
one or two sentences of practical advice. Plain text, no JSON.`,
}

// PromptManager resolves per-agent system prompts: a <name>.md file in the
// prompts directory overrides the built-in default.
type PromptManager struct {
	Directory string

	mu    sync.Mutex
	cache map[string]string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir, cache: make(map[string]string)}
}

// Get returns the system prompt for the named agent.
func (pm *PromptManager) Get(name string) string {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if cached, ok := pm.cache[name]; ok {
		return cached
	}
	prompt := defaultPrompts[name]
	if pm.Directory != "" {
		path := filepath.Join(pm.Directory, name+".md")
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			prompt = strings.TrimSpace(string(data))
		case !os.IsNotExist(err):
			log.Printf("Warning: failed to read prompt file %s: %v", path, err)
		}
	}
	pm.cache[name] = prompt
	return prompt
}
