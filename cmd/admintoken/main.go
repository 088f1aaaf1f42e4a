// Command admintoken mints a short-lived admin bearer token for the /admin/v1 API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgAuth "github.com/TThanhhDatt/agent-bot/pkg/auth"
	"github.com/TThanhhDatt/agent-bot/pkg/config"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "admintoken", Output: os.Stderr})

	_ = godotenv.Load()

	subject := flag.String("subject", "", "operator identifier recorded in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to AGENTBOT_JWT_EXPIRATION_MINUTES")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "missing -subject")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	jwtCfg := cfg.JWT
	if *ttl > 0 {
		jwtCfg.ExpirationMinutes = int((*ttl + time.Minute - 1) / time.Minute)
	}

	token, err := pkgAuth.MintAccessToken(jwtCfg, time.Now(), pkgAuth.AccessTokenPayload{
		Subject: *subject,
		Role:    enums.ActorRoleAdmin,
	})
	if err != nil {
		logg.Error(logg.WithField(context.Background(), "subject", *subject), "failed to mint admin token", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
