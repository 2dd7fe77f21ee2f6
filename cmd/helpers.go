/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/wtthornton/LocalMCP/internal/app"
	"github.com/wtthornton/LocalMCP/internal/config"
	"github.com/wtthornton/LocalMCP/internal/llm"
	"github.com/wtthornton/LocalMCP/internal/telemetry"
)

func isJSON() bool {
	return viper.GetBool("json")
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// loadServices builds the pipeline from configuration. An LLM config that does not
// load only disables the model-driven steps.
func loadServices(ctx context.Context) (*app.Services, config.EnhanceConfig, error) {
	cfg, err := config.LoadEnhanceConfig("")
	if err != nil {
		return nil, cfg, fmt.Errorf("load config: %w", err)
	}
	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		llmCfg = llm.Config{}
	}
	svc, err := app.Build(ctx, cfg, llmCfg, app.Options{Version: version})
	if err != nil {
		return nil, cfg, err
	}
	return svc, cfg, nil
}

func trackCommand(t telemetry.Client, name string, success bool) {
	t.Track(telemetry.EventCommandExecuted, telemetry.Properties{"command": name, "success": success})
}
