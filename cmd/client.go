package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skylark-im/skylark/core/config"
	"github.com/skylark-im/skylark/infrastructure/notify"
	"github.com/skylark-im/skylark/infrastructure/valkey"
	"github.com/skylark-im/skylark/infrastructure/voicelink"
	"github.com/skylark-im/skylark/pkg/ratewindow"
	"github.com/skylark-im/skylark/realtime/application"
	"github.com/skylark-im/skylark/realtime/domain/presence"
	"github.com/skylark-im/skylark/realtime/domain/stream"
	"github.com/skylark-im/skylark/realtime/repository"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Run the interactive coordination client",
	Run:   runClient,
}

func init() {
	rootCmd.AddCommand(clientCmd)
}

// sendLimit throttles outgoing messages per spam-guard policy.
var sendLimit = ratewindow.Params{MaxActions: 5, Window: 5 * time.Second}

func runClient(_ *cobra.Command, _ []string) {
	cfg := config.Global
	ctx := context.Background()

	typingList, closeTyping := openTypingList(cfg)
	defer closeTyping()

	cursorDB, err := badger.Open(badger.DefaultOptions(cfg.Paths.Cursors).WithLogger(nil))
	if err != nil {
		logrus.Fatalf("failed to open cursor store: %v", err)
	}
	defer cursorDB.Close()
	cursors := repository.NewBadgerCursorStore(cursorDB)

	db, err := gorm.Open(sqlite.Open(cfg.Database.MessagesURI), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to open message cache: %v", err)
	}
	msgStream, err := repository.NewGormStream(db)
	if err != nil {
		logrus.Fatalf("failed to migrate message cache: %v", err)
	}

	tracker := application.NewUnreadTracker(cursors, msgStream, notify.NewDesktopDispatcher(), cfg.App.UserName, cfg.Timing)
	defer tracker.Close()

	link := voicelink.NewLoopback(cfg.Timing.JoinSettleDelay)
	voiceCtl := application.NewVoiceSessionController(link, cfg.Timing)
	link.OnConnected = voiceCtl.HandleConnected
	voiceCtl.OnWarning = func(msg string) { fmt.Println("! " + msg) }
	defer voiceCtl.Close()

	sender, err := ratewindow.New(sendLimit)
	if err != nil {
		logrus.Fatalln(err)
	}

	// Background recomputation drives unread counts and notifications while
	// the user is at the prompt.
	recomputeStop := make(chan struct{})
	defer close(recomputeStop)
	go func() {
		ticker := time.NewTicker(cfg.Timing.PresencePoll)
		defer ticker.Stop()
		for {
			select {
			case <-recomputeStop:
				return
			case <-ticker.C:
				tracker.Recompute(ctx)
			}
		}
	}()

	var (
		presenceSync  *application.PresenceSynchronizer
		activeChannel string
	)
	closePresence := func() {
		if presenceSync != nil {
			presenceSync.Close()
			presenceSync = nil
		}
	}
	defer closePresence()

	fmt.Printf("skylark %s — signed in as %s\n", cfg.App.Version, cfg.App.UserName)
	printClientHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		verb, arg := splitCommand(scanner.Text())

		switch verb {
		case "":
			continue

		case "channel":
			id, rest := splitCommand(arg)
			name, kindArg := splitCommand(rest)
			if id == "" || name == "" {
				fmt.Println("usage: channel <id> <name> [voice]")
				continue
			}
			kind := stream.KindText
			if kindArg == "voice" {
				kind = stream.KindVoice
			}
			if err := msgStream.SaveChannel(ctx, stream.Channel{ID: id, Name: name, Kind: kind}); err != nil {
				logrus.WithError(err).Error("[Client] Channel save failed")
			}

		case "open":
			if arg == "" {
				fmt.Println("usage: open <channel-id>")
				continue
			}
			closePresence()
			activeChannel = arg
			tracker.SetActiveChannel(arg)
			tracker.MarkAsRead(ctx, arg)

			presenceSync = application.NewPresenceSynchronizer(typingList, arg, cfg.App.UserName, cfg.Timing)
			presenceSync.StartPolling(func(typers []string) {
				if len(typers) > 0 {
					fmt.Printf("… %s typing\n", strings.Join(typers, ", "))
				}
			})
			fmt.Printf("viewing %s\n", arg)

		case "type":
			if presenceSync == nil {
				fmt.Println("open a channel first")
				continue
			}
			presenceSync.NotifyTyping()

		case "send":
			if activeChannel == "" || arg == "" {
				fmt.Println("usage: open a channel, then send <text>")
				continue
			}
			if res := sender.Check(); !res.Allowed {
				fmt.Printf("slow down, retry in %dms\n", res.RetryAfter.Milliseconds())
				continue
			}
			sender.Record()
			msg := stream.Message{
				ID:        uuid.NewString(),
				ChannelID: activeChannel,
				Sender:    cfg.App.UserName,
				Content:   arg,
				CreatedAt: time.Now(),
			}
			if err := msgStream.Record(ctx, msg); err != nil {
				logrus.WithError(err).Error("[Client] Message record failed")
				continue
			}
			tracker.MarkAsRead(ctx, activeChannel)

		case "recv":
			// Simulates the replication layer delivering a remote message.
			who, text := splitCommand(arg)
			if activeChannel == "" || who == "" || text == "" {
				fmt.Println("usage: open a channel, then recv <sender> <text>")
				continue
			}
			msg := stream.Message{
				ID:        uuid.NewString(),
				ChannelID: activeChannel,
				Sender:    who,
				Content:   text,
				CreatedAt: time.Now(),
			}
			if err := msgStream.Record(ctx, msg); err != nil {
				logrus.WithError(err).Error("[Client] Message record failed")
			}

		case "read":
			if activeChannel == "" {
				continue
			}
			tracker.MarkAsRead(ctx, activeChannel)

		case "unread":
			channels, err := msgStream.Channels(ctx)
			if err != nil {
				logrus.WithError(err).Error("[Client] Channel listing failed")
				continue
			}
			for _, ch := range channels {
				fmt.Printf("  #%s: %d\n", ch.Name, tracker.UnreadCount(ctx, ch.ID))
			}

		case "join":
			if arg == "" {
				fmt.Println("usage: join <voice-channel-id>")
				continue
			}
			voiceCtl.Join(arg)

		case "leave":
			voiceCtl.Leave()

		case "mute":
			voiceCtl.ToggleMute()
			fmt.Printf("muted: %v\n", voiceCtl.Muted())

		case "status":
			fmt.Printf("voice: %s", voiceCtl.Status())
			if target := voiceCtl.Target(); target != "" {
				fmt.Printf(" (%s)", target)
			}
			fmt.Println()

		case "help":
			printClientHelp()

		case "quit", "exit":
			return

		default:
			fmt.Printf("unknown command %q, try help\n", verb)
		}
	}
}

// openTypingList picks the replicated container backend. Valkey serves
// multi-peer deployments; without it typing presence stays process-local.
func openTypingList(cfg *config.Config) (presence.List, func()) {
	if !cfg.Database.ValkeyEnabled {
		return repository.NewMemoryTypingList(), func() {}
	}

	client, err := valkey.NewClient(valkey.Config{
		Address:   cfg.Database.ValkeyAddress,
		Password:  cfg.Database.ValkeyPassword,
		DB:        cfg.Database.ValkeyDB,
		KeyPrefix: cfg.Database.ValkeyKeyPrefix,
	})
	if err != nil {
		logrus.WithError(err).Warn("[Client] Valkey unavailable, typing presence stays local")
		return repository.NewMemoryTypingList(), func() {}
	}
	return repository.NewValkeyTypingList(client), client.Close
}

func splitCommand(line string) (string, string) {
	trimmed := strings.TrimSpace(line)
	head, tail, found := strings.Cut(trimmed, " ")
	if !found {
		return trimmed, ""
	}
	return head, strings.TrimSpace(tail)
}

func printClientHelp() {
	fmt.Println(`commands:
  channel <id> <name> [voice]   register a channel
  open <channel-id>             view a channel (marks it read)
  type                          signal a keystroke
  send <text>                   send a message (rate limited)
  recv <sender> <text>          simulate an incoming message
  read                          mark the open channel read
  unread                        unread count per channel
  join <voice-channel-id>       join a voice channel
  leave | mute | status         voice session controls
  quit`)
}
