// aerial-tuner is a console tester for the SDK: it tunes a session against
// the configured placement, drives a simulated audio device, and prints every
// notification the session emits.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/aerialfm/aerial-go/api"
	"github.com/aerialfm/aerial-go/identity"
	"github.com/aerialfm/aerial-go/internal/config"
	"github.com/aerialfm/aerial-go/player"
	"github.com/aerialfm/aerial-go/session"
)

func main() {
	verbose := flag.Bool("v", false, "log API requests")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.Server, cfg.Token, cfg.Secret)
	if *verbose {
		client.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var store identity.Store
	if sqlStore, err := identity.Open(); err == nil {
		defer sqlStore.Close()
		store = sqlStore
	} else {
		fmt.Fprintf(os.Stderr, "identity store unavailable (%v), using memory\n", err)
		store = identity.NewMemoryStore()
	}

	sess := session.New(session.Config{
		Server:              cfg.Server,
		Token:               cfg.Token,
		Secret:              cfg.Secret,
		Formats:             cfg.Formats,
		MaxBitrate:          cfg.MaxBitrate,
		PlacementID:         cfg.PlacementID,
		StationID:           cfg.StationID,
		RequestPlayOnChange: cfg.TuneOnChange,
		MaxRetries:          cfg.MaxRetries,
	}, client, store)
	defer sess.Close()

	ctl := player.NewController(sess, player.NewSimDevice())

	go printEvents(sess.Subscribe())

	fmt.Println("commands: play pause skip invalidate station <id> stations status tune quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "play":
			if err := ctl.Play(); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
			}
		case "pause":
			ctl.Pause()
		case "skip":
			if err := ctl.Skip(); err != nil {
				fmt.Fprintf(os.Stderr, "skip: %v\n", err)
			}
		case "invalidate":
			if err := ctl.Invalidate(); err != nil {
				fmt.Fprintf(os.Stderr, "invalidate: %v\n", err)
			}
		case "station":
			if len(fields) < 2 {
				fmt.Fprintln(os.Stderr, "usage: station <id>")
				continue
			}
			sess.SetStation(fields[1])
		case "stations":
			for _, st := range sess.Stations() {
				marker := " "
				if st.ID == sess.StationID() {
					marker = "*"
				}
				fmt.Printf("%s %s  %s\n", marker, st.ID, st.Name)
			}
		case "status":
			fmt.Printf("state=%s placement=%s station=%s\n",
				sess.State(), sess.PlacementID(), sess.StationID())
		case "tune":
			if err := sess.Tune(); err != nil {
				fmt.Fprintf(os.Stderr, "tune: %v\n", err)
			}
		case "quit", "exit":
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", fields[0])
		}
	}
}

func printEvents(sub *session.Subscription) {
	for {
		select {
		case info := <-sub.Placement:
			fmt.Printf("<< placement %q with %d stations\n", info.Placement.Name, len(info.Stations))
		case stations := <-sub.Stations:
			fmt.Printf("<< station list updated (%d stations)\n", len(stations))
		case id := <-sub.PlacementChanged:
			fmt.Printf("<< placement changed to %s\n", id)
		case id := <-sub.StationChanged:
			fmt.Printf("<< station changed to %s\n", id)
		case play := <-sub.PlayActive:
			fmt.Printf("<< up next: %s\n", describe(play))
		case play := <-sub.PlayStarted:
			fmt.Printf("<< now playing: %s\n", describe(play))
		case play := <-sub.PlayCompleted:
			fmt.Printf("<< finished: %s\n", describe(play))
		case <-sub.PlaysExhausted:
			fmt.Println("<< out of music for this station")
		case <-sub.SkipDenied:
			fmt.Println("<< skip denied")
		case <-sub.NotInRegion:
			fmt.Println("<< not available in your region")
		case id := <-sub.ClientRegistered:
			fmt.Printf("<< registered client %s\n", id)
		case <-sub.PlayPaused:
			fmt.Println("<< paused")
		case <-sub.PlayResumed:
			fmt.Println("<< resumed")
		case change := <-sub.StateChanged:
			fmt.Printf("<< state: %s -> %s\n", change.Previous, change.Current)
		case err := <-sub.Error:
			fmt.Printf("<< session error: %v\n", err)
		case <-sub.Done:
			return
		}
	}
}

func describe(play *api.Play) string {
	af := play.AudioFile
	return fmt.Sprintf("%s by %s (%ss)",
		af.Track.Title, af.Artist.Name, humanize.FtoaWithDigits(af.DurationSeconds, 1))
}
