package build

import (
	"github.com/outofforest/build"
	"github.com/outofforest/buildgo"
)

// Commands is a definition of commands available in build system
var Commands = map[string]build.Command{
	"test": {Fn: goTests, Description: "Runs unit tests"},
}

func init() {
	commands := make(map[string]interface{}, len(Commands))
	for k, v := range Commands {
		commands[k] = v
	}
	buildgo.AddCommands(commands)
}
