package cli

import (
	"github.com/spf13/cobra"

	"gatepass/backend/pkg/database"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		Long:  "postgres 执行内嵌的版本化 SQL 迁移；sqlite 依据模型建表。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.Migrate(a.db, a.cfg.Database.Driver, a.logger); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), flags,
				map[string]string{"driver": a.cfg.Database.Driver, "status": "ok"},
				"migrations applied ("+a.cfg.Database.Driver+")")
		},
	}
}
