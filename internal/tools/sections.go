package tools

import (
	"strings"

	"github.com/vinayprograms/planner/internal/planning"
)

// Section types with fixed templates.
const (
	SectionChecklist = "checklist"
	SectionBudget    = "budget"
	SectionPacking   = "packing"
	SectionResearch  = "research"
	SectionContacts  = "contacts"
)

// sectionTemplates take the topic with its per-template default already applied.
var sectionTemplates = map[string]struct {
	defaultTopic string
	render       func(topic string) string
}{
	SectionBudget:   {"Trip", budgetSection},
	SectionPacking:  {"Trip", packingSection},
	SectionResearch: {"Destination", researchSection},
	SectionContacts: {"Emergency", contactsSection},
}

// Section renders the template for sectionType. Checklists carry both the
// markdown rendering and the fenced payload. Unknown types get a placeholder
// heading.
func Section(sectionType, topic string) string {
	kind := strings.ToLower(strings.TrimSpace(sectionType))
	if kind == SectionChecklist {
		checklist := planning.Checklist(topic, "Trip")
		return checklist.Markdown + "\n\n" + checklist.Tag
	}
	if tmpl, ok := sectionTemplates[kind]; ok {
		if topic == "" {
			topic = tmpl.defaultTopic
		}
		return tmpl.render(topic)
	}

	heading := topic
	if heading == "" {
		heading = planning.TitleCase(sectionType)
	}
	return "# " + heading + "\n\n*Add your content here...*"
}

func budgetSection(topic string) string {
	return "## 💰 " + topic + ` Budget

### Estimated Costs
| Category | Estimated Cost | Actual Cost | Notes |
|----------|---------------|-------------|-------|
| Flights | $XXX | | |
| Accommodation | $XXX | | |
| Food & Dining | $XXX | | |
| Transportation | $XXX | | |
| Activities | $XXX | | |
| Shopping | $XXX | | |
| Emergency Fund | $XXX | | |
| **Total** | **$XXX** | | |

### Money-Saving Tips
- 
- 
- 
`
}

func packingSection(topic string) string {
	return "## 🎒 " + topic + ` Packing List

### Essentials
- [ ] Passport/ID
- [ ] Travel insurance documents
- [ ] Flight confirmations
- [ ] Accommodation confirmations
- [ ] Phone & charger
- [ ] Medications

### Clothing
- [ ] Weather-appropriate clothes
- [ ] Comfortable walking shoes
- [ ] Light jacket/sweater
- [ ] Sleepwear
- [ ] Undergarments

### Personal Items
- [ ] Toiletries
- [ ] Sunscreen
- [ ] Sunglasses
- [ ] Camera
- [ ] Travel adapter
- [ ] First aid kit

### Optional
- [ ] Books/entertainment
- [ ] Snacks
- [ ] Gifts for locals
- [ ] Extra memory cards
`
}

func researchSection(topic string) string {
	return "## 📚 " + topic + ` Research Notes

### Key Information
**Language:** 
**Currency:** 
**Time Zone:** 
**Climate:** 
**Local Customs:** 

### Must-Know Phrases
- Hello: 
- Thank you: 
- Excuse me: 
- Where is...?: 
- How much?: 

### Important Apps/Websites
- 
- 
- 

### Local Tips
- 
- 
- 
`
}

func contactsSection(topic string) string {
	return "## 📞 " + topic + ` Contacts

### Emergency Services
**Local Emergency Number:** 
**Police:** 
**Medical:** 
**Fire:** 

### Embassy/Consulate
**Address:** 
**Phone:** 
**Email:** 

### Personal Contacts
**Travel Companions:** 
**Emergency Contact at Home:** 
**Accommodation:** 
**Local Guide/Contact:** 

### Important Numbers
**Bank/Credit Card:** 
**Travel Insurance:** 
**Airline:** 
`
}
