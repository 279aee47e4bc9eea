package console

import (
	"fmt"
	"strconv"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
)

func consoleMethod(fn func(c *Console, args []any) error) command.MethodFunc {
	return func(target any, args []any) error {
		return fn(target.(*Console), args)
	}
}

// ConsoleCommands exposes the console's own commands.
func (c *Console) ConsoleCommands() []command.InstanceCommand {
	return []command.InstanceCommand{
		{
			Decl:   command.Decl{ID: "help", Description: "displays all commands"},
			Method: "DisplayHelp",
			Run:    consoleMethod((*Console).displayHelp),
		},
		{
			Decl:   command.Decl{ID: "clear", Description: "clears the console content"},
			Method: "ClearContent",
			Run:    consoleMethod((*Console).clearContent),
		},
		{
			Decl:   command.Decl{ID: "params", Description: "displays all parameter types"},
			Method: "DisplayParameters",
			Run:    consoleMethod((*Console).displayParameters),
		},
		{
			Decl:   command.Decl{ID: "history", Description: "logs input history"},
			Method: "DisplayHistory",
			Run:    consoleMethod((*Console).displayHistory),
		},
		{
			Decl: command.Decl{
				ID:          "man",
				Description: "displays extended information about a command",
				Params:      []command.Param{{Name: "command", Type: codec.TagCommand}},
			},
			Method: "Man",
			Run:    consoleMethod((*Console).man),
		},
	}
}

func (c *Console) displayHelp(_ []any) error {
	bindings := c.commands.Bindings()
	c.Print(fmt.Sprintf("Found %d executable commands:", len(bindings)))
	for _, b := range bindings {
		line := b.Format
		if b.Description != "" {
			line += " - " + b.Description
		}
		c.Print(line)
	}
	return nil
}

func (c *Console) clearContent(_ []any) error {
	c.resetTranscript()
	return nil
}

func (c *Console) displayParameters(_ []any) error {
	tags := c.codecs.Tags()
	c.Print(fmt.Sprintf("Found %d parameter types:", len(tags)))
	for _, tag := range tags {
		c.Print(string(tag))
	}
	return nil
}

func (c *Console) displayHistory(_ []any) error {
	for i, line := range c.History() {
		c.Print(strconv.Itoa(i) + ". " + line)
	}
	return nil
}

func (c *Console) man(args []any) error {
	b, ok := args[0].(*command.Binding)
	if !ok {
		return fmt.Errorf("man: expected a command, got %T", args[0])
	}
	c.Print("Description: " + b.Description)
	c.Print("Parameters: " + b.ParamTypesLabel(c.opts.Colors.Parameters))
	c.Print("Target: " + b.TargetLabel())
	c.Print("Source class name: " + b.Source)
	c.Print("Source assembly name: " + b.Module)
	return nil
}
