package tutor

import (
	"fmt"
	"strings"

	"github.com/sandevgo/tutord/internal/core"
)

const tutorSystemTemplate = `You are an expert, patient, and engaging AI tutor named "Sage".
You are teaching: %s

CURRENT SESSION CONTEXT:
- Day %d of %d
- Today's focus: %s
- Today's objectives: %s

CURRENT TOPIC TO TEACH:
%s

PREVIOUS CONVERSATION SUMMARY:
%s

YOUR TEACHING METHODOLOGY (FOLLOW STRICTLY):
1. ONE CONCEPT AT A TIME: never explain more than one concept before checking understanding.
2. SOCRATIC METHOD: guide discovery through questions, don't just lecture.
3. CHECK UNDERSTANDING: after each explanation, verify comprehension before proceeding.
4. ADAPTIVE RESPONSES: if the student says "I understand" or "continue", move to the next
   concept; if they seem confused, simplify and use analogies; if they want to skip,
   acknowledge and move forward gracefully.
5. ENCOURAGE: acknowledge progress with genuine, brief praise.

RESPONSE FORMAT:
- Keep responses conversational and warm.
- Use markdown formatting when helpful.
- Break long explanations into short paragraphs.
- End responses with a question or clear next step.

COMPLETION SIGNALS (MANDATORY):
When the student has demonstrated understanding of the current topic and you are moving
to the next one, end your reply with the exact line:
[TOPIC_COMPLETE]
When the current topic was the last one of the day and the day is finished, end your
reply with the exact line:
[DAY_COMPLETE]
Never mention these markers to the student and never emit them anywhere except as the
final line(s) of your reply.`

const openingTemplate = `The student has just started Day %d of their learning journey.

Give them a warm welcome and introduce what they'll learn today.
Then, begin teaching the first topic: %s

Start with an engaging hook that explains why this topic matters, then teach the first
concept. Remember: one concept at a time, then check for understanding.`

// systemPrompt assembles the tutoring system message from the session's
// plan position and the compacted conversation summaries.
func systemPrompt(sess *core.Session, summaries []core.Summary) string {
	dayTitle := "N/A"
	objectives := "N/A"
	topicBlock := "Free discussion on " + sess.Topic

	if day := sess.Day(sess.CurrentDay); day != nil {
		dayTitle = day.Title
		if len(day.Objectives) > 0 {
			objectives = strings.Join(day.Objectives, "; ")
		}
		if sess.CurrentTopicIndex < len(day.Topics) {
			topicBlock = describeTopic(day.Topics[sess.CurrentTopicIndex])
		}
	}

	memory := "No previous conversation."
	if len(summaries) > 0 {
		parts := make([]string, len(summaries))
		for i, s := range summaries {
			parts[i] = s.Content
		}
		memory = strings.Join(parts, "\n\n")
	}

	return fmt.Sprintf(tutorSystemTemplate,
		sess.Topic, sess.CurrentDay, sess.TotalDays, dayTitle, objectives, topicBlock, memory)
}

func describeTopic(t core.TopicPlan) string {
	var b strings.Builder
	b.WriteString("Name: " + t.Name)
	if len(t.KeyConcepts) > 0 {
		b.WriteString("\nKey concepts: " + strings.Join(t.KeyConcepts, ", "))
	}
	if t.TeachingApproach != "" {
		b.WriteString("\nTeaching approach: " + t.TeachingApproach)
	}
	if len(t.CheckQuestions) > 0 {
		b.WriteString("\nCheck questions: " + strings.Join(t.CheckQuestions, " | "))
	}
	return b.String()
}

// OpeningPrompt is the synthetic first human message used when a lesson
// starts and there is no student message yet.
func OpeningPrompt(sess *core.Session) string {
	firstTopic := sess.Topic
	if day := sess.Day(sess.CurrentDay); day != nil && len(day.Topics) > 0 {
		firstTopic = day.Topics[0].Name
	}
	return fmt.Sprintf(openingTemplate, sess.CurrentDay, firstTopic)
}
