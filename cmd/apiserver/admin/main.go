package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"gorm.io/gorm"

	"quest-go/internal/config"
	"quest-go/internal/storage"
	"quest-go/internal/uploader"
)

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  ./admin list-attachments <questID> - 列出 quest 的所有附件")
	fmt.Println("  ./admin show-quest <questID>       - 显示 quest 信息")
}

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	questID, err := strconv.ParseUint(os.Args[2], 10, 32)
	if err != nil || questID == 0 {
		log.Fatalf("无效的 questID: %s", os.Args[2])
	}

	cfg, err := config.LoadConfig(os.Getenv("QUEST_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法连接数据库: %v", err)
	}

	ctx := context.Background()
	questRepo := storage.NewGormQuestRepository(db)
	attachmentRepo := storage.NewGormAttachmentRepository(db)

	switch os.Args[1] {
	case "list-attachments":
		listAttachments(ctx, attachmentRepo, uint(questID))
	case "show-quest":
		showQuest(ctx, questRepo, attachmentRepo, uint(questID))
	default:
		usage()
		os.Exit(1)
	}
}

func listAttachments(ctx context.Context, repo storage.AttachmentRepository, questID uint) {
	atts, err := repo.ListByQuest(ctx, questID)
	if err != nil {
		log.Fatalf("获取附件失败: %v", err)
	}
	fmt.Printf("quest %d 共有 %d 个附件:\n", questID, len(atts))
	for _, a := range atts {
		fmt.Printf("  [%d] %-8s %-40s %10s  uploader=%d  %s\n",
			a.ID, uploader.IconFor(a.FileType), a.FileName, uploader.FormatFileSize(a.FileSize),
			a.UploaderID, a.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func showQuest(ctx context.Context, questRepo storage.QuestRepository, attachmentRepo storage.AttachmentRepository, questID uint) {
	quest, err := questRepo.GetByID(ctx, questID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("quest %d 不存在", questID)
	}
	if err != nil {
		log.Fatalf("获取 quest 失败: %v", err)
	}
	fmt.Printf("Quest ID: %d\n", quest.ID)
	fmt.Printf("标题: %s\n", quest.Title)
	fmt.Printf("所有者: %d\n", quest.OwnerID)
	fmt.Printf("创建时间: %s\n", quest.CreatedAt.Format("2006-01-02 15:04:05"))
	if quest.Description != "" {
		fmt.Printf("描述: %s\n", quest.Description)
	}
	listAttachments(ctx, attachmentRepo, questID)
}
