package chat

// BuildPrompt joins the knowledge base and instruction exactly as stored and
// configured. The instruction is always the last text the model sees.
func BuildPrompt(knowledgeBase, instruction string) string {
	return knowledgeBase + " " + instruction
}
