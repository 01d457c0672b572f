package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/application"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/registry"
)

var (
	Version = "v0.1.0"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	env := pflag.String("env", envOr(consts.ENV_KEY_ENV, consts.ENV_DEVELOPMENT), "running environment (development|test|production)")
	cfgPath := pflag.String("config", envOr(consts.ENV_KEY_CONFIG, consts.DEFAULT_CONFIG_PATH), "config file (yaml or json)")
	printManifest := pflag.Bool("print-manifest", false, "print the services this build would launch and exit")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}
	if *printManifest {
		if err := dumpManifest(*env, *cfgPath); err != nil {
			log.Fatalf("print manifest: %v", err)
		}
		return
	}

	app := application.NewApp(*env, *cfgPath)
	if err := app.Run(); err != nil {
		log.Fatalf("app exited with error: %v", err)
	}
}

func dumpManifest(env, path string) error {
	cm := config.NewConfigManager(env, path)
	if err := cm.LoadConfig(); err != nil {
		return err
	}
	m, err := manifest.Build(registry.Catalog(), cm.GetConfig().Services)
	if err != nil {
		return err
	}
	out := struct {
		Services []manifest.Summary `json:"services"`
		Disabled []string           `json:"disabled,omitempty"`
		Skipped  []string           `json:"skipped,omitempty"`
	}{m.Describe(), m.Disabled(), m.Skipped()}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
