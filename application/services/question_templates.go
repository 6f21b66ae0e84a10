package services

import "ideaforge/domain/core/valueobjects"

// categoryTemplates is the deterministic question bank. It seeds the
// opening question of the interview and backs every generation failure,
// so the interview can run end to end with no backend at all.
var categoryTemplates = map[valueobjects.Category][]string{
	valueobjects.CategoryStart: {
		"Let's start by understanding your product idea. What problem does your product solve?",
	},
	valueobjects.CategoryFunctionality: {
		"What are the main features users will interact with?",
		"How will users accomplish their primary goals with your product?",
		"What makes your product's functionality unique or innovative?",
	},
	valueobjects.CategoryUsers: {
		"Who are the primary users of your product?",
		"What expertise level do your users have (beginner, intermediate, expert)?",
		"What are the key characteristics of your target users?",
	},
	valueobjects.CategoryDemographics: {
		"What is the age range of your target audience?",
		"What geographic regions are you primarily targeting?",
		"Are there specific demographic factors important for your product?",
	},
	valueobjects.CategoryDesign: {
		"Do you have specific design preferences (modern, minimal, bold, playful)?",
		"Are there any brand colors or style guidelines you'd like to follow?",
		"What mood or feeling should the design convey to users?",
	},
	valueobjects.CategoryMarket: {
		"Who are your main competitors in the market?",
		"What is your unique value proposition compared to alternatives?",
		"What market segment or niche are you targeting?",
	},
	valueobjects.CategoryTechnical: {
		"Do you have any technical stack preferences or requirements?",
		"What are your scalability expectations (users, data volume)?",
		"Are there specific integrations or APIs you need to support?",
	},
	valueobjects.CategoryReview: {
		"Let me summarize what we've discussed. Does this capture your vision accurately?",
		"Is there anything important we haven't covered yet?",
		"Would you like to clarify or expand on any aspect?",
	},
}

// followupTemplates backs follow-up generation failures per category.
// REVIEW has no entry: review answers never trigger follow-ups.
var followupTemplates = map[valueobjects.Category][]string{
	valueobjects.CategoryFunctionality: {
		"Can you give me a specific example of how that would work?",
		"What would be the most important aspect of that feature?",
		"How do you envision users interacting with that?",
	},
	valueobjects.CategoryUsers: {
		"Can you describe a typical user's background or expertise?",
		"What would motivate someone to use your product?",
		"What problems do these users currently face?",
	},
	valueobjects.CategoryDemographics: {
		"Are there specific characteristics that define your target audience?",
		"Which demographic factors are most relevant to your product?",
		"How would you reach this audience?",
	},
	valueobjects.CategoryDesign: {
		"What emotion should users feel when using your product?",
		"Are there any design examples you admire?",
		"What should be the visual focus of the interface?",
	},
	valueobjects.CategoryMarket: {
		"What makes your approach different from existing solutions?",
		"Who would be your ideal first customers?",
		"What's the key benefit users would pay for?",
	},
	valueobjects.CategoryTechnical: {
		"What technical capabilities are critical for your product?",
		"Do you have any performance or security requirements?",
		"What platforms or devices need to be supported?",
	},
}

// genericFollowups covers categories without a dedicated follow-up set
var genericFollowups = []string{
	"Could you tell me more about that?",
	"Can you elaborate on that point?",
}

// categoryTemplate returns the rotation-th fresh template for a category,
// wrapping around the bank. The second return is false for categories
// with no templates (COMPLETE).
func categoryTemplate(category valueobjects.Category, rotation int) (string, bool) {
	bank := categoryTemplates[category]
	if len(bank) == 0 {
		return "", false
	}
	if rotation < 0 {
		rotation = 0
	}
	return bank[rotation%len(bank)], true
}

// followupTemplate returns the rotation-th follow-up template for a
// category, falling back to the generic pair
func followupTemplate(category valueobjects.Category, rotation int) string {
	bank := followupTemplates[category]
	if len(bank) == 0 {
		bank = genericFollowups
	}
	if rotation < 0 {
		rotation = 0
	}
	return bank[rotation%len(bank)]
}
