package plan

import "fmt"

const planSystemPrompt = `You are an expert curriculum designer. You take a learner from beginner to proficient in any topic.
You always output valid JSON and nothing else. No markdown, no explanations, just pure JSON.`

const planPromptTemplate = `Create a comprehensive %d-day lesson plan for learning: "%s"

The student can dedicate %s per day to studying.

Generate a structured JSON curriculum with the following EXACT format:
{
    "title": "Course title",
    "overview": "Brief course overview (2-3 sentences)",
    "total_days": %d,
    "time_per_day": "%s",
    "days": [
        {
            "day": 1,
            "title": "Day 1 - [Topic Title]",
            "objectives": ["By the end of this day, you will...", "..."],
            "estimated_duration": "%s",
            "topics": [
                {
                    "name": "Topic name",
                    "duration": "X minutes",
                    "key_concepts": ["concept 1", "concept 2"],
                    "teaching_approach": "Brief description of how to teach this",
                    "check_questions": ["Question to verify understanding"]
                }
            ],
            "day_summary": "Brief summary of what was covered"
        }
    ]
}

IMPORTANT GUIDELINES:
1. Break complex topics into small, digestible chunks (no more than 3-4 topics per day)
2. Each day should build logically on previous knowledge
3. Add review topics periodically to reinforce learning
4. Each topic should have 1-2 check questions to verify understanding
5. Match the total content to the available time (%s per day)

Return ONLY valid JSON. No additional text, explanations, or markdown formatting.`

func buildPlanPrompt(topic string, totalDays int, timePerDay string) string {
	return fmt.Sprintf(planPromptTemplate,
		totalDays, topic, timePerDay, totalDays, timePerDay, timePerDay, timePerDay)
}
