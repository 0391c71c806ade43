package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"quest-go/internal/apitypes"
	"quest-go/internal/curriculum"
	"quest-go/internal/uploader"
)

// questParent 是命令行中的父级数据持有者：它拥有附件序列，
// 并在组件请求时整体采用新序列。
type questParent struct {
	widget *uploader.Widget
}

func (p *questParent) adopt(list []apitypes.Attachment) {
	p.widget.SetAttachments(list)
}

// newHostedWidget 用服务端当前的附件序列初始化组件。
func newHostedWidget(ctx context.Context, client *curriculum.Client, questID uint, policy uploader.Policy, notifier uploader.Notifier, out io.Writer) (*uploader.Widget, error) {
	initial, err := client.List(ctx, questID)
	if err != nil {
		return nil, err
	}
	parent := &questParent{}
	progress := newProgressPrinter(out)
	w, err := uploader.New(uploader.Props{
		QuestID:     questID,
		Attachments: initial,
		OnChange:    parent.adopt,
		OnProgress:  progress.print,
	}, client, notifier, policy)
	if err != nil {
		return nil, err
	}
	parent.widget = w
	return w, nil
}

// runUpload 上传所有路径，返回失败的文件数。打不开的路径也算失败。
func runUpload(ctx context.Context, out io.Writer, client *curriculum.Client, policy uploader.Policy, questID uint, paths []string) (int, error) {
	out = &lockedWriter{w: out}
	notifier := newConsoleNotifier(out)
	w, err := newHostedWidget(ctx, client, questID, policy, notifier, out)
	if err != nil {
		return 0, err
	}
	defer w.Close()

	stop := context.AfterFunc(ctx, w.Close)
	defer stop()

	picker := &uploader.PickerInput{}
	for _, p := range paths {
		f, err := uploader.FileFromPath(p)
		if err != nil {
			notifier.Error(err.Error())
			continue
		}
		picker.Files = append(picker.Files, f)
	}
	w.HandleSelect(picker)
	w.Wait()

	if ctx.Err() != nil {
		return notifier.Errors(), ctx.Err()
	}
	fmt.Fprintf(out, "%s quest %d now has %d attachment(s)\n", gray("·"), questID, len(w.Attachments()))
	return notifier.Errors(), nil
}

func parseQuestFlag(questID uint) error {
	if questID == 0 {
		return errors.New("--quest is required")
	}
	return nil
}

func uploadCmd(a *app) *cobra.Command {
	var questID uint
	cmd := &cobra.Command{
		Use:   "upload --quest N FILE...",
		Short: "Validate and upload files to a quest",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseQuestFlag(questID); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			failed, err := runUpload(ctx, cmd.OutOrStdout(), a.client(), a.policy(), questID, args)
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().UintVarP(&questID, "quest", "q", 0, "quest id")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var questID uint
	cmd := &cobra.Command{
		Use:   "list --quest N",
		Short: "List the attachments of a quest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseQuestFlag(questID); err != nil {
				return err
			}
			list, err := a.client().List(cmd.Context(), questID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintf(out, "quest %d has no attachments\n", questID)
				return nil
			}
			for _, att := range list {
				fmt.Fprintln(out, formatAttachmentLine(att.ID, uploader.IconFor(att.FileType), att.FileName, att.FileSize, att.FileURL))
			}
			return nil
		},
	}
	cmd.Flags().UintVarP(&questID, "quest", "q", 0, "quest id")
	return cmd
}

func removeCmd(a *app) *cobra.Command {
	var questID uint
	cmd := &cobra.Command{
		Use:   "remove --quest N ID...",
		Short: "Remove attachments from a quest",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseQuestFlag(questID); err != nil {
				return err
			}
			ids := make([]uint, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseUint(arg, 10, 32)
				if err != nil || id == 0 {
					return fmt.Errorf("invalid attachment id %q", arg)
				}
				ids = append(ids, uint(id))
			}

			out := &lockedWriter{w: cmd.OutOrStdout()}
			notifier := newConsoleNotifier(out)
			w, err := newHostedWidget(cmd.Context(), a.client(), questID, a.policy(), notifier, out)
			if err != nil {
				return err
			}
			defer w.Close()

			for _, id := range ids {
				_ = w.Remove(id)
			}
			if n := notifier.Errors(); n > 0 {
				return fmt.Errorf("%d removal(s) failed", n)
			}
			return nil
		},
	}
	cmd.Flags().UintVarP(&questID, "quest", "q", 0, "quest id")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login -u USER -p PASSWORD",
		Short: "Log in and print a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("both --username and --password are required")
			}
			token, err := a.client().Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}
