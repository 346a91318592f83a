package intent

import (
	"fmt"
	"strings"
)

const textInstructions = `Analyze the user's request.
1. Classify the request into exactly ONE category from this list: %s.
2. Understand the user's context: occasion, season, style, room or surface.
3. Suggest 3-5 complementary items to search for. Each must be a short descriptive phrase
   (colour, material and item type, e.g. "golden silk saree", "brass table lamp"), never a single word,
   so the catalog search can match as many items as possible. Put the most prominent item first.
4. For decor, infer what the user wants to decorate (table, wall, window) and suggest items for it.
   Do not suggest furniture such as sofas or beds.

Reply with exactly one JSON object and nothing else:
{
  "category": "%s",
  "context": "formal, winter, wedding",
  "searchTerms": ["black velvet blazer", "white silk blouse", "tailored wool trousers"]
}`

const imageInstructions = `Analyze the attached image(s) and the user's request.
1. Identify the main item in the image(s): type, colour, style. For a room, identify the surface or
   area to decorate.
2. Classify the request into exactly ONE category from this list: %s.
3. Suggest 3-5 complementary items that would complete the look. Each must be a short descriptive
   phrase (colour, material and item type), never a single word. Put the most prominent item first.
   Do not suggest furniture such as sofas or beds unless it is the pictured item.

Reply with exactly one JSON object and nothing else:
{
  "category": "%s",
  "itemInImage": "blue jeans, casual",
  "context": "party, winter, night",
  "searchTerms": ["black leather jacket", "silver hoop earrings", "ankle strap heels"]
}`

// BuildPrompt renders the instruction prompt. The user's own text, when present, is appended.
func BuildPrompt(query string, hasImages bool) string {
	names := make([]string, 0, len(Categories()))
	for _, c := range Categories() {
		names = append(names, fmt.Sprintf("%q", string(c)))
	}
	list := strings.Join(names, ", ")

	tmpl := textInstructions
	if hasImages {
		tmpl = imageInstructions
	}
	prompt := fmt.Sprintf(tmpl, list, Clothing)

	if q := strings.TrimSpace(query); q != "" {
		prompt += "\n\nUser query: " + q
	}
	return prompt
}
