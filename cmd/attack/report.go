package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
	"github.com/cory-johannsen/rqgcombat/internal/game/damage"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleCritical = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleFailure = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleFumble = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleNotice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleDetail = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func tierStyle(t ability.Tier) lipgloss.Style {
	switch t {
	case ability.CriticalSuccess, ability.SpecialSuccess:
		return styleCritical
	case ability.Success:
		return styleSuccess
	case ability.Fumble:
		return styleFumble
	default:
		return styleFailure
	}
}

// damageTier maps the -damage flag to a roll tier. The second result is false
// when no damage should be rolled.
func damageTier(flag string, res combat.AttackResult) (damage.RollTier, bool, error) {
	switch flag {
	case "none":
		return damage.Normal, false, nil
	case "auto", "":
		switch res.Tier {
		case ability.CriticalSuccess:
			return damage.MaxSpecial, true, nil
		case ability.SpecialSuccess:
			return damage.Special, true, nil
		default:
			return damage.Normal, true, nil
		}
	default:
		t, err := damage.ParseRollTier(flag)
		if err != nil {
			return 0, false, err
		}
		return t, true, nil
	}
}

// report renders engine results for a terminal.
type report struct {
	printer *notice.Printer
	locale  string
}

func (r *report) notices(b *strings.Builder, ns []notice.Notice) {
	for _, n := range ns {
		b.WriteString("\n  ")
		b.WriteString(styleNotice.Render(r.printer.Render(r.locale, n)))
	}
}

func (r *report) attack(req combat.AttackRequest, res combat.AttackResult) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("%s attacks: %s (%s, %s)", req.ActorID, req.Maneuver, req.WeaponID, req.Usage)))
	if res.Refused {
		b.WriteString("\n  ")
		b.WriteString(styleFailure.Render("attack refused"))
		r.notices(&b, res.Notices)
		return b.String()
	}
	b.WriteString("\n  ")
	b.WriteString(tierStyle(res.Tier).Render(fmt.Sprintf("rolled %d vs %d%%: %s", res.Roll, res.Chance, res.Tier)))
	if res.SpecialDescription != "" {
		b.WriteString("\n  ")
		b.WriteString(styleDetail.Render(res.SpecialDescription))
	}
	if res.ExperienceMarked {
		b.WriteString("\n  ")
		b.WriteString(styleDetail.Render("experience gained"))
	}
	r.notices(&b, res.Notices)
	return b.String()
}

func (r *report) damage(tier damage.RollTier, d combat.DamageResult) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("%s damage (%s): %d", d.DamageType, tier, d.Total)))
	for _, t := range d.Terms {
		b.WriteString("\n  ")
		b.WriteString(styleDetail.Render(fmt.Sprintf("%-22s %-16s %d", t.Label, t.Formula(), t.Value)))
	}
	r.notices(&b, d.Notices)
	return b.String()
}

func (r *report) hitLocation(h combat.HitLocationResult) string {
	if !h.Found {
		return styleHeader.Render(fmt.Sprintf("hit location: %d (no location)", h.Roll))
	}
	return styleHeader.Render(fmt.Sprintf("hit location: %d %s (AP %d)", h.Roll, h.Location.Name, h.Location.AP))
}

func (r *report) failure(err error) string {
	var ce *combat.Error
	if errors.As(err, &ce) {
		return styleError.Render(fmt.Sprintf("%s: %s", ce.Code, ce.Message))
	}
	return styleError.Render(err.Error())
}
