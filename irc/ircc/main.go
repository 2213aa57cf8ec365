package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/presbrey/ircclient/irc"
	"github.com/presbrey/ircclient/irc/config"
	"github.com/presbrey/ircclient/metrics"
	"github.com/presbrey/ircclient/transcript"
)

func main() {
	configSource := flag.String("config", "", "Config file path or URL (yaml, toml or json)")
	server := flag.String("server", "", "IRC server host, overrides config")
	port := flag.Int("port", 0, "IRC server port, overrides config")
	nick := flag.String("nick", "", "Nickname, overrides config")
	metricsAddr := flag.String("metrics", "", "Prometheus metrics bind address, overrides config")
	debug := flag.Bool("debug", false, "Enable wire-level debug logging")
	quiet := flag.Bool("quiet", false, "Silence engine logging; events are still printed")
	flag.Parse()

	log.SetFlags(log.Lshortfile | log.LstdFlags)

	// flags fill in what a missing config file would require
	if *server != "" {
		os.Setenv("IRCC_HOST", *server)
	}
	if *port != 0 {
		os.Setenv("IRCC_PORT", fmt.Sprint(*port))
	}
	if *nick != "" {
		os.Setenv("IRCC_NICK", *nick)
	}
	if *metricsAddr != "" {
		os.Setenv("IRCC_METRICS_LISTEN", *metricsAddr)
	}

	cfg, err := config.Load(*configSource)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	irc.Debug = cfg.Debug || *debug
	if *quiet {
		irc.SetLogger(irc.NopLogger{})
	} else {
		irc.SetLogger(&irc.StdLogger{Prefix: "irc: "})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := irc.NewSession(cfg.SessionOptions())
	ui := &console{session: session}
	ui.attach()

	if cfg.Transcript.Driver != "" {
		store, err := transcript.Open(cfg.Transcript.Driver, cfg.Transcript.DSN)
		if err != nil {
			log.Fatalf("Failed to open transcript: %v", err)
		}
		store.Attach(session.Events)
		log.Printf("Transcript session %s (%s)", store.SessionID(), cfg.Transcript.Driver)
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			mc := metrics.DefaultConfig()
			mc.Listen = cfg.Metrics.Listen
			log.Printf("Serving metrics on %s%s", mc.Listen, mc.MetricsPath)
			if err := metrics.Serve(ctx, mc); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	session.Invoke(func() {
		if err := session.Connect(cfg.ConnectParams()); err != nil {
			log.Printf("Connect failed: %v", err)
			stop()
		}
	})

	go ui.readInput(os.Stdin, stop)

	if err := session.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("Session stopped: %v", err)
	}

	// Run has returned, so this goroutine owns the session now
	session.Disconnect(true)
	log.Println("Goodbye!")
}

// console prints session events and feeds typed lines to the command
// dispatcher. Plain text goes to the current target.
type console struct {
	session *irc.Session

	mu     sync.Mutex
	target string
}

func (c *console) currentTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *console) setTarget(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

func (c *console) attach() {
	events := c.session.Events

	events.StatusChanged.Subscribe(func(e irc.StatusEvent) error {
		fmt.Printf("-- %s\n", e.Status)
		return nil
	})
	events.SystemText.Subscribe(func(e irc.TextEvent) error {
		fmt.Printf("-- %s\n", e.Text)
		return nil
	})
	events.ErrorText.Subscribe(func(e irc.TextEvent) error {
		fmt.Printf("!! %s\n", e.Text)
		return nil
	})
	events.TextReceived.Subscribe(func(e irc.MessageEvent) error {
		fmt.Printf("[%s] <%s> %s\n", e.Target.Label(), e.Sender.Label(), e.Text)
		return nil
	})
	events.NoticeReceived.Subscribe(func(e irc.MessageEvent) error {
		fmt.Printf("[%s] -%s- %s\n", e.Target.Label(), e.Sender.Label(), e.Text)
		return nil
	})
	events.ActionReceived.Subscribe(func(e irc.MessageEvent) error {
		fmt.Printf("[%s] * %s %s\n", e.Target.Label(), e.Sender.Label(), e.Text)
		return nil
	})
	events.Joined.Subscribe(func(e irc.ChannelEvent) error {
		c.setTarget(e.Channel.Name().Label())
		fmt.Printf("-- Joined %s\n", e.Channel.Name().Label())
		return nil
	})
	events.Parted.Subscribe(func(e irc.ChannelEvent) error {
		fmt.Printf("-- Left %s\n", e.Channel.Name().Label())
		return nil
	})
	events.UserJoined.Subscribe(func(e irc.MemberEvent) error {
		fmt.Printf("[%s] %s joined\n", e.Channel.Name().Label(), e.Nick.Label())
		return nil
	})
	events.UserParted.Subscribe(func(e irc.MemberEvent) error {
		fmt.Printf("[%s] %s left (%s)\n", e.Channel.Name().Label(), e.Nick.Label(), e.Reason)
		return nil
	})
	events.UserKicked.Subscribe(func(e irc.MemberEvent) error {
		fmt.Printf("[%s] %s was kicked by %s (%s)\n", e.Channel.Name().Label(), e.Nick.Label(), e.By.Label(), e.Reason)
		return nil
	})
	events.UserQuit.Subscribe(func(e irc.MemberEvent) error {
		fmt.Printf("[%s] %s quit (%s)\n", e.Channel.Name().Label(), e.Nick.Label(), e.Reason)
		return nil
	})
	events.NickChanged.Subscribe(func(e irc.NickChangeEvent) error {
		fmt.Printf("-- %s is now known as %s\n", e.Old.Label(), e.New.Label())
		return nil
	})
	events.TopicUpdated.Subscribe(func(e irc.TopicEvent) error {
		fmt.Printf("[%s] topic: %s\n", e.Channel.Name().Label(), e.Channel.Topic())
		return nil
	})
	events.NamesUpdated.Subscribe(func(e irc.NamesEvent) error {
		var names []string
		for _, m := range e.Channel.Members() {
			names = append(names, m.Label())
		}
		fmt.Printf("[%s] names: %s\n", e.Channel.Name().Label(), strings.Join(names, " "))
		return nil
	})
	events.DCCFileOffered.Subscribe(func(e irc.DCCFileOffer) error {
		fmt.Printf("-- %s offers %q (%d bytes) at %s:%d\n", e.Sender.Label(), e.Filename, e.Size, e.IP, e.Port)
		return nil
	})
	events.DCCChatOffered.Subscribe(func(e irc.DCCChatOffer) error {
		fmt.Printf("-- %s offers a chat at %s:%d\n", e.Sender.Label(), e.IP, e.Port)
		return nil
	})
}

// readInput runs until stdin closes. "/target name" switches the current
// target locally; every other line is executed on the session goroutine.
func (c *console) readInput(f *os.File, stop func()) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "/target"); ok && (rest == "" || rest[0] == ' ') {
			c.setTarget(strings.TrimSpace(rest))
			fmt.Printf("-- Talking to %q\n", c.currentTarget())
			continue
		}

		target := c.currentTarget()
		c.session.Invoke(func() {
			if err := c.session.ExecuteCommand(target, line); err != nil {
				fmt.Printf("!! %v\n", err)
			}
			if c.session.Status() == irc.StatusDisconnected && strings.HasPrefix(strings.ToLower(line), "/quit") {
				stop()
			}
		})
	}
	stop()
}
