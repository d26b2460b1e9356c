package cmds

import (
	"time"

	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/sources"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// EnvPrefix is prepended to the upper-cased flag names, CHATWIDGET_BASE_URL
// sets --base-url.
const EnvPrefix = "CHATWIDGET"

func getMiddlewares(
	_ *values.Values,
	cmd *cobra.Command,
	args []string,
) ([]sources.Middleware, error) {
	return []sources.Middleware{
		sources.FromCobra(cmd),
		sources.FromArgs(args),
		sources.FromEnv(EnvPrefix,
			fields.WithSource("env"),
		),
		sources.FromDefaults(),
	}, nil
}

// BuildCommands returns the chat and serve cobra commands.
func BuildCommands() ([]*cobra.Command, error) {
	chat, err := NewChatCommand()
	if err != nil {
		return nil, err
	}
	serve, err := NewServeCommand()
	if err != nil {
		return nil, err
	}

	var ret []*cobra.Command
	for _, c := range []cmds.Command{chat, serve} {
		cobraCmd, err := cli.BuildCobraCommand(c, cli.WithCobraMiddlewaresFunc(getMiddlewares))
		if err != nil {
			return nil, errors.Wrapf(err, "building %s command", c.Description().Name)
		}
		ret = append(ret, cobraCmd)
	}
	return ret, nil
}

func parseDuration(flag, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid --%s", flag)
	}
	return d, nil
}
