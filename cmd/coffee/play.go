package main

import (
	"errors"
	"fmt"
	"io"

	"coffeemarket/internal/game"
)

// runPlain drives a local session with line prompts until the player quits or
// stdin closes.
func runPlain(sess *game.Session) error {
	for {
		snap := sess.Snapshot()
		renderSnapshot(snap)

		choice, err := promptChoice("Hành động", []string{"round", "settings", "acquire", "market", "quit"}, "round")
		if err != nil {
			return endOfInput(err)
		}

		switch choice {
		case "round":
			out, err := sess.Apply(game.PlayRound{})
			if err != nil {
				return err
			}
			renderOutcome(out)
		case "settings":
			settings, err := promptSettings(sess.Settings)
			if err != nil {
				return endOfInput(err)
			}
			if _, err := sess.Apply(game.SetSettings{Settings: settings}); err != nil {
				return err
			}
			printSuccess("Đã cập nhật chiến lược.")
		case "market":
			accent.Println("\n== CẤU TRÚC THỊ TRƯỜNG ==")
			fmt.Printf("Loại:     %s\n", severityColor(snap.Market.Severity).Sprintf("%s %s", snap.Market.Icon, snap.Market.Label))
			fmt.Printf("Đối thủ:  %d đang hoạt động\n", snap.Market.ActiveCompetitors)
			renderOffers(snap.Offers)
		case "acquire":
			if len(snap.Offers) == 0 {
				printWarn("Không còn đối thủ nào để mua lại.")
				continue
			}
			renderOffers(snap.Offers)
			id, err := promptInt64("ID", int64(snap.Offers[0].CompetitorID), 1, int64(len(sess.Competitors)))
			if err != nil {
				return endOfInput(err)
			}
			out, err := sess.Apply(game.Acquire{CompetitorID: int(id)})
			if err != nil {
				if !game.IsClientError(err) {
					return err
				}
				printError(out.Notice)
				continue
			}
			if !out.Applied {
				printInfo("Đối thủ này đã được mua lại.")
				continue
			}
			renderOutcome(out)
		case "quit":
			return nil
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		fmt.Println()
		return nil
	}
	return err
}
