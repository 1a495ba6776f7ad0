package llms

// PromptOptions collects the pieces of a model invocation. Providers read
// from here after all options have been applied.
type PromptOptions struct {
	Instructions string
	Turns        []Turn
	Tools        []Tool
}

// PromptOption mutates PromptOptions before a prompt is issued.
type PromptOption interface {
	ApplyToPrompt(*PromptOptions)
}

type instructionsOption struct{ instructions string }

func (o instructionsOption) ApplyToPrompt(opts *PromptOptions) {
	opts.Instructions = o.instructions
}

// WithInstructions sets the system instructions for the invocation.
func WithInstructions(instructions string) PromptOption {
	return instructionsOption{instructions: instructions}
}

type turnsOption struct{ turns []Turn }

func (o turnsOption) ApplyToPrompt(opts *PromptOptions) {
	opts.Turns = append(opts.Turns, o.turns...)
}

// WithTurns appends conversation history to the invocation.
func WithTurns(turns ...Turn) PromptOption {
	return turnsOption{turns: turns}
}

type toolsOption struct{ tools []Tool }

func (o toolsOption) ApplyToPrompt(opts *PromptOptions) {
	opts.Tools = append(opts.Tools, o.tools...)
}

// WithTools exposes tools to the model for this invocation.
func WithTools(tools ...Tool) PromptOption {
	return toolsOption{tools: tools}
}
