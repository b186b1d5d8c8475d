// Package main provides a one-shot CLI that resolves a single attack, and
// optionally its damage and hit location, against the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/app"
	"github.com/cory-johannsen/rqgcombat/internal/config"
	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/observability"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	actorID := flag.String("actor", "", "attacking actor id")
	weaponID := flag.String("weapon", "", "weapon id")
	usage := flag.String("usage", string(inventory.UsageOneHand), "weapon usage: one-hand, off-hand, two-hand, missile")
	maneuver := flag.String("maneuver", "", "maneuver name")
	modifier := flag.Int("modifier", 0, "situational modifier added to the skill chance")
	dmg := flag.String("damage", "auto", "damage roll: auto, none, normal, special, max-special")
	location := flag.Bool("location", true, "roll a hit location on success")
	locale := flag.String("locale", "", "notice locale (default: content.locale)")
	seed := flag.Int64("seed", 0, "dice seed for reproducible rolls (0 = crypto)")
	flag.Parse()

	if *actorID == "" || *weaponID == "" || *maneuver == "" {
		fmt.Fprintln(os.Stderr, "usage: attack -actor <id> -weapon <id> -maneuver <name> [-usage <usage>] [-modifier <n>] [-damage <tier>]")
		os.Exit(2)
	}
	ut, err := inventory.ParseUsageType(*usage)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "attack")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var opts []app.Option
	if *seed != 0 {
		opts = append(opts, app.WithSource(dice.NewSeededSource(*seed)))
	}
	ctx := context.Background()
	a, err := app.Build(ctx, cfg, logger, opts...)
	if err != nil {
		logger.Fatal("building engine", zap.Error(err))
	}
	defer a.Close()
	if *locale == "" {
		*locale = a.Locale
	}
	out := &report{printer: a.Printer, locale: *locale}

	req := combat.AttackRequest{ActorID: *actorID, WeaponID: *weaponID, Usage: ut, Maneuver: *maneuver, Modifier: *modifier}
	res, err := a.Engine.ResolveAttack(ctx, req)
	if err != nil {
		fmt.Println(out.failure(err))
		os.Exit(1)
	}
	fmt.Println(out.attack(req, res))
	if res.Refused || !res.Tier.IsSuccess() {
		return
	}

	tier, roll, err := damageTier(*dmg, res)
	if err != nil {
		log.Fatal(err)
	}
	if roll {
		d, err := a.Engine.ResolveDamage(ctx, res.AttackID, tier)
		if err != nil {
			fmt.Println(out.failure(err))
			os.Exit(1)
		}
		fmt.Println(out.damage(tier, d))
	}
	if *location {
		loc, err := a.Engine.RollHitLocation(ctx, res.AttackID)
		if err != nil {
			fmt.Println(out.failure(err))
			os.Exit(1)
		}
		fmt.Println(out.hitLocation(loc))
	}
}
