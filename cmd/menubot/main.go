// Command menubot runs the menu ordering bot.
package main

import (
	"context"
	"log"

	"github.com/m3rciful/menubot/bot/app"
	"github.com/m3rciful/menubot/bot/config"
	corecmd "github.com/m3rciful/menubot/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "MENUBOT_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.New(ctx, cfg.(*config.Config), app.Options{})
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
