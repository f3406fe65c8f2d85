package route

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gamelens/gamelens/internal/common"
	routerpkg "github.com/gamelens/gamelens/pkg/router"
)

// RouteAction dispatches one {action, payload} request through the message
// router and prints the response envelope. The request comes from --request
// or, when that flag is absent, from stdin.
func RouteAction(c *cli.Context) error {
	rt, err := common.Build(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	raw := []byte(c.String("request"))
	if len(raw) == 0 {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read request from stdin: %w", err)
		}
	}
	if len(raw) == 0 {
		return fmt.Errorf("no request provided via --request flag or stdin")
	}

	var req routerpkg.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	router := routerpkg.New(rt.Engine, rt.Settings, rt.Database, rt.Logger)
	resp := router.Handle(c.Context, req)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	if !resp.Success {
		return cli.Exit("", 1)
	}
	return nil
}
