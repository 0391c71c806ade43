package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"quest-go/internal/apitypes"
	"quest-go/internal/uploader"
)

func watchURL(notifyURL string, questID uint, token string) (string, error) {
	u, err := url.Parse(notifyURL)
	if err != nil {
		return "", fmt.Errorf("invalid notify url %q: %w", notifyURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/quests/" + strconv.FormatUint(uint64(questID), 10)
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// watchEvents 打印收到的附件事件，直到连接关闭或 ctx 结束。
func watchEvents(ctx context.Context, out io.Writer, wsURL string) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return errors.New("notify server rejected the token")
		}
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		var ev apitypes.AttachmentEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			fmt.Fprintf(out, "%s unreadable event: %v\n", red("?"), err)
			continue
		}
		fmt.Fprintln(out, formatEvent(ev))
	}
}

func formatEvent(ev apitypes.AttachmentEvent) string {
	att := ev.Attachment
	line := formatAttachmentLine(att.ID, uploader.IconFor(att.FileType), att.FileName, att.FileSize, att.FileURL)
	switch ev.Type {
	case apitypes.AttachmentCreated:
		return fmt.Sprintf("%s %s %s", gray(ev.Timestamp.Local().Format("15:04:05")), green("+"), line)
	case apitypes.AttachmentDeleted:
		return fmt.Sprintf("%s %s %s", gray(ev.Timestamp.Local().Format("15:04:05")), red("-"), line)
	default:
		return fmt.Sprintf("%s %s %s", gray(ev.Timestamp.Local().Format("15:04:05")), string(ev.Type), line)
	}
}

func watchCmd(a *app) *cobra.Command {
	var questID uint
	cmd := &cobra.Command{
		Use:   "watch --quest N",
		Short: "Print live attachment events for a quest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseQuestFlag(questID); err != nil {
				return err
			}
			wsURL, err := watchURL(a.cfg.Client.NotifyURL, questID, a.cfg.Client.Token)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "watching quest %d (ctrl-c to stop)\n", questID)
			return watchEvents(ctx, cmd.OutOrStdout(), wsURL)
		},
	}
	cmd.Flags().UintVarP(&questID, "quest", "q", 0, "quest id")
	return cmd
}
