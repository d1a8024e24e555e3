package repl

import (
	"strings"

	prompt "github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"
)

// PromptReader reads lines through go-prompt, giving interactive sessions
// line editing and command completion.
type PromptReader struct {
	commands    []string
	interrupted bool
}

// NewPromptReader creates an interactive reader completing the given
// commands.
func NewPromptReader(commands []string) *PromptReader {
	return &PromptReader{commands: commands}
}

// ReadLine renders the prompt and returns the entered line.
// go-prompt ends the read with an empty line on Ctrl-C, which is
// indistinguishable from pressing Enter on empty input, so a key bind marks
// the interrupt and ReadLine reports it as ErrInterrupted. Ctrl-D also
// yields an empty line; end-of-input is driven by the exit command in
// interactive sessions.
func (p *PromptReader) ReadLine(promptText string) (string, error) {
	p.interrupted = false
	line := prompt.Input(
		prompt.WithPrefix(promptText),
		prompt.WithCompleter(p.complete),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(*prompt.Prompt) bool {
				p.interrupted = true
				return true
			},
		}),
	)
	if p.interrupted {
		return "", ErrInterrupted
	}
	return line, nil
}

// complete suggests commands matching the current word.
func (p *PromptReader) complete(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	before := d.TextBeforeCursor()
	word := d.GetWordBeforeCursor()

	// Only the first word of a line is a command.
	if strings.Contains(strings.TrimSpace(before), " ") {
		end := istrings.RuneNumber(len([]rune(before)))
		return nil, end, end
	}

	var suggestions []prompt.Suggest
	for _, cmd := range p.commands {
		if strings.HasPrefix(cmd, strings.ToLower(word)) {
			suggestions = append(suggestions, prompt.Suggest{Text: cmd})
		}
	}

	end := istrings.RuneNumber(len([]rune(before)))
	start := end - istrings.RuneNumber(len([]rune(word)))
	return suggestions, start, end
}
