// Package cli 定义 gatepassctl 运维命令树
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatepass/backend/config"
	"gatepass/backend/internal/repository"
	"gatepass/backend/pkg/database"
	applogger "gatepass/backend/pkg/logger"
)

// 全局参数
type globalFlags struct {
	configPath string
	format     string
}

// NewRootCmd 创建 gatepassctl 根命令
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "gatepassctl",
		Short:         "GatePass 运维工具",
		Long:          "GatePass 运维工具：执行过期扫描、数据库迁移、维护员工目录、签发访问令牌。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml 与 ./config.yaml）")
	root.PersistentFlags().StringVar(&flags.format, "format", "text", "输出格式 (text|json)")

	root.AddCommand(
		newSweepCmd(flags),
		newMigrateCmd(flags),
		newEmployeeCmd(flags),
		newTokenCmd(flags),
	)

	return root
}

// app 单次命令执行所需的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
}

// openApp 加载配置、初始化日志并连接数据库
func openApp(flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, db: db, repo: repository.NewRepository(db)}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}

// printResult 按 --format 输出；text 模式输出 line
func printResult(w io.Writer, flags *globalFlags, v interface{}, line string) error {
	if flags.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
