package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/service"
	"gatepass/backend/pkg/clock"
)

func newSweepCmd(flags *globalFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "将超过预约时间的待审批申请置为 expired",
		Long: `将所有预约时间已过、仍处于待审批状态的访问申请置为 expired。
与服务端的周期扫描、接口触发的扫描使用同一条条件更新，可安全并发执行。

示例:
  gatepassctl sweep
  gatepassctl sweep --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			sweeper := service.NewExpirationSweeper(&a.cfg.Visit, a.repo, clock.New(), nil, a.logger)

			var n int64
			if dryRun {
				n, err = sweeper.CountDue(cmd.Context())
			} else {
				n, err = sweeper.Sweep(cmd.Context(), service.SweepModeManual)
			}
			if err != nil {
				return fmt.Errorf("过期扫描失败: %w", err)
			}

			line := fmt.Sprintf("expired %d pending visit request(s)", n)
			if dryRun {
				line = fmt.Sprintf("%d pending visit request(s) would expire", n)
			}
			return printResult(cmd.OutOrStdout(), flags, dto.SweepResponse{Expired: n, DryRun: dryRun}, line)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只统计，不修改")

	return cmd
}
