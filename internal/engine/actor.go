package engine

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
)

// Actor is a demo scene object with a name and a 2D position.
type Actor struct {
	logger *zap.Logger

	mu   sync.Mutex
	name string
	x, y float32
}

// NewActor creates an Actor at the origin.
func NewActor(name string, logger *zap.Logger) *Actor {
	return &Actor{name: name, logger: logger}
}

// DemoScene returns a factory producing the named actors.
func DemoScene(logger *zap.Logger, names ...string) SceneFactory {
	return func() []any {
		objects := make([]any, 0, len(names))
		for _, n := range names {
			objects = append(objects, NewActor(n, logger))
		}
		return objects
	}
}

// Name returns the actor's name.
func (a *Actor) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// Position returns the actor's coordinates.
func (a *Actor) Position() (float32, float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.x, a.y
}

// Ping logs a reply from the actor.
func (a *Actor) Ping() {
	a.logger.Info(a.Name() + " pong")
}

// Teleport moves the actor.
func (a *Actor) Teleport(x, y float32) {
	a.mu.Lock()
	a.x, a.y = x, y
	name := a.name
	a.mu.Unlock()
	a.logger.Info(fmt.Sprintf("%s teleported to (%g, %g)", name, x, y))
}

// Rename changes the actor's name.
func (a *Actor) Rename(name string) {
	a.mu.Lock()
	old := a.name
	a.name = name
	a.mu.Unlock()
	a.logger.Info(fmt.Sprintf("%s is now called %s", old, name))
}

// ConsoleCommands exposes ping to every actor and teleport and rename to the
// first one.
func (a *Actor) ConsoleCommands() []command.InstanceCommand {
	return []command.InstanceCommand{
		{
			Decl:   command.Decl{ID: "ping", Description: "every actor replies", FanOut: command.FanOutAll},
			Method: "Ping",
			Run: func(target any, _ []any) error {
				target.(*Actor).Ping()
				return nil
			},
		},
		{
			Decl: command.Decl{
				ID:          "teleport",
				Description: "moves the first actor",
				Params: []command.Param{
					{Name: "x", Type: codec.TagFloat},
					{Name: "y", Type: codec.TagFloat},
				},
			},
			Method: "Teleport",
			Run: func(target any, args []any) error {
				target.(*Actor).Teleport(args[0].(float32), args[1].(float32))
				return nil
			},
		},
		{
			Decl: command.Decl{
				ID:          "rename",
				Description: "renames the first actor",
				Params:      []command.Param{{Name: "name", Type: codec.TagString}},
			},
			Method: "Rename",
			Run: func(target any, args []any) error {
				target.(*Actor).Rename(args[0].(string))
				return nil
			},
		},
	}
}
