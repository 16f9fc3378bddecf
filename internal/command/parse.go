package command

import "strings"

// Command is a parsed slash command.
type Command struct {
	Trigger string
	Args    string
}

// Parse splits "/trigger args" into its parts. The trigger is lowercased and
// keeps its leading slash.
func Parse(text string) Command {
	text = strings.TrimSpace(text)
	trigger, args, _ := strings.Cut(text, " ")
	return Command{
		Trigger: strings.ToLower(trigger),
		Args:    strings.TrimSpace(args),
	}
}
