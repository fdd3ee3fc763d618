package persona

// DefaultPrompt is composed into every request when no persona file exists.
const DefaultPrompt = "Você é um assistente virtual prestativo."

// DefaultEditorPrompt is shown to administrators editing a persona that was
// never saved.
const DefaultEditorPrompt = "Você é um assistente virtual prestativo. Responda de forma clara e útil."
