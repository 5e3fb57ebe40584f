package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/pinkchat/backend/internal/config"
	model "github.com/zhouzirui/pinkchat/backend/internal/model/chat"
	"github.com/zhouzirui/pinkchat/backend/internal/model/persona"
	"github.com/zhouzirui/pinkchat/backend/internal/service/chat"
	"github.com/zhouzirui/pinkchat/backend/internal/service/endpoint"
	"github.com/zhouzirui/pinkchat/backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debugf("无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("配置加载失败: %v", err)
	}

	apiURL := flag.String("url", cfg.ChatAPI.URL, "聊天接口地址")
	locale := flag.String("lang", cfg.Widget.Locale, "提示语言 (fr / en)")
	timeout := flag.Duration("timeout", cfg.ChatAPI.Timeout, "请求超时时间")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(level, "text"); err != nil {
		logger.Fatalf("日志配置失败: %v", err)
	}
	logger.SetOutput(os.Stderr)

	personas := persona.NewMemoryStore(persona.WithAliases(persona.Seed(), cfg.Widget.Aliases))
	conv := chat.NewConversation("cli", endpoint.NewClient(*apiURL, *timeout), personas, chat.LocalizedTexts(*locale, *apiURL))

	run(context.Background(), conv, personas, os.Stdin, os.Stdout)
}

// run reads one utterance per line. "/reset" clears the conversation, "/quit" exits.
func run(ctx context.Context, conv *chat.Conversation, personas persona.Store, in io.Reader, out io.Writer) {
	printMessage(out, personas, conv.Messages()[0])

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/quit", "/exit":
			return
		case "/reset":
			conv.Reset()
			printMessage(out, personas, conv.Messages()[0])
			continue
		}

		reply, ok := conv.Submit(ctx, line)
		if !ok {
			continue
		}
		printMessage(out, personas, reply)
	}
}

func printMessage(out io.Writer, personas persona.Store, msg model.Message) {
	name := string(msg.Character)
	if p, ok := personas.FindByID(msg.Character); ok {
		name = p.Name
	}
	fmt.Fprintf(out, "[%s] %s\n", name, msg.Text)
}
