package models

const (
	// ContextSeparator delimits retrieved passages inside the prompt.
	ContextSeparator = "\n---\n"

	// NoContextNotice is inserted in place of retrieved passages when the
	// index holds nothing relevant, so the model is told rather than left
	// to invent context.
	NoContextNotice = "No relevant passages were found in the document for this question."
)

var (
	// ChatPreamble instructs the model before context and history are
	// appended.
	ChatPreamble = `You are a document assistant. Answer the user's question using the document passages provided below.
If the passages do not contain the answer, say so plainly instead of guessing.
Keep answers concise and grounded in the passages.`
)
