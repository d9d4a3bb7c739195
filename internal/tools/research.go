package tools

import (
	"fmt"
	"strings"

	"github.com/vinayprograms/planner/internal/planning"
)

type destinationInfo struct {
	bestTime   string
	highlights []string
	food       []string
	culture    []string
	budget     string
	transport  string
}

// knowledgeBase is matched in order, so the first overlapping key wins.
var knowledgeBase = []struct {
	key  string
	info destinationInfo
}{
	{"tokyo", destinationInfo{
		bestTime:   "Spring (March-May) or Fall (September-November)",
		highlights: []string{"Senso-ji Temple", "Shibuya Crossing", "Tsukiji Fish Market", "Mount Fuji day trips"},
		food:       []string{"Sushi", "Ramen", "Tempura", "Wagyu beef", "Street food in Harajuku"},
		culture:    []string{"Traditional tea ceremonies", "Kabuki theater", "Modern art museums", "Anime culture"},
		budget:     "$$$ - Expensive but manageable with planning",
		transport:  "Excellent public transportation with JR Pass for tourists",
	}},
	{"paris", destinationInfo{
		bestTime:   "Late spring (May-June) or early fall (September-October)",
		highlights: []string{"Eiffel Tower", "Louvre Museum", "Notre-Dame", "Champs-Élysées"},
		food:       []string{"Croissants", "French wine", "Cheese", "Fine dining", "Café culture"},
		culture:    []string{"Art museums", "Historic architecture", "Fashion", "Literary history"},
		budget:     "$$$ - Expensive, especially dining and accommodation",
		transport:  "Metro system covers the city well",
	}},
	{"bali", destinationInfo{
		bestTime:   "Dry season (April-October)",
		highlights: []string{"Uluwatu Temple", "Rice terraces", "Beach clubs", "Volcano hikes"},
		food:       []string{"Nasi Goreng", "Satay", "Fresh tropical fruits", "Balinese cuisine"},
		culture:    []string{"Hindu temples", "Traditional dance", "Art villages", "Spiritual retreats"},
		budget:     "$$ - Very affordable for accommodation and food",
		transport:  "Scooter rental popular, private drivers available",
	}},
}

func lookupDestination(destination string) (destinationInfo, bool) {
	key := strings.ToLower(strings.TrimSpace(destination))
	if key == "" {
		return destinationInfo{}, false
	}
	for _, entry := range knowledgeBase {
		if strings.Contains(key, entry.key) || strings.Contains(entry.key, key) {
			return entry.info, true
		}
	}
	return destinationInfo{}, false
}

func genericInfo(destination string) destinationInfo {
	return destinationInfo{
		bestTime:   "Research local climate and peak seasons",
		highlights: []string{"Popular attractions and landmarks in " + destination},
		food:       []string{"Local cuisine and specialties of " + destination},
		culture:    []string{"Cultural experiences and traditions in " + destination},
		budget:     "Research local cost of living and tourist prices",
		transport:  "Local transportation options and tourist passes",
	}
}

// Research renders a destination report from the knowledge base, or a
// generic report naming destination when nothing matches.
func Research(destination, interests string) string {
	info, ok := lookupDestination(destination)
	if !ok {
		info = genericInfo(destination)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## 📍 %s Research\n\n", planning.TitleCase(destination))
	fmt.Fprintf(&b, "**🌟 Best Time to Visit:** %s\n\n", info.bestTime)
	b.WriteString("**🏛️ Must-See Highlights:**\n" + bullets(info.highlights) + "\n\n")
	b.WriteString("**🍽️ Food & Dining:**\n" + bullets(info.food) + "\n\n")
	b.WriteString("**🎭 Culture & Experiences:**\n" + bullets(info.culture) + "\n\n")
	fmt.Fprintf(&b, "**💰 Budget:** %s\n\n", info.budget)
	fmt.Fprintf(&b, "**🚌 Transportation:** %s\n", info.transport)

	if focus := strings.TrimSpace(interests); focus != "" && !strings.EqualFold(focus, "general") {
		fmt.Fprintf(&b, "\n**🎯 Focus:** Suggestions above can be narrowed toward %s.\n", focus)
	}
	return b.String()
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
