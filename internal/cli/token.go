package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"gatepass/backend/pkg/jwt"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "访问令牌",
	}
	cmd.AddCommand(newTokenIssueCmd(flags))
	return cmd
}

func newTokenIssueCmd(flags *globalFlags) *cobra.Command {
	var (
		employeeID string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "为员工签发 Access Token",
		Long: `为已登记的员工签发 Access Token，角色取自员工目录。
用于前台终端与集成测试；未指定 --ttl 时使用 auth.access_token_ttl。

示例:
  gatepassctl token issue --employee 7d0c...
  gatepassctl token issue --employee 7d0c... --ttl 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if employeeID == "" {
				return fmt.Errorf("--employee 不能为空")
			}

			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			e, err := a.repo.Employee.GetByID(cmd.Context(), employeeID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("员工不存在: %s", employeeID)
				}
				return err
			}

			if ttl <= 0 {
				ttl = a.cfg.Auth.AccessTokenTTL
			}
			token, err := jwt.NewManager(&a.cfg.Auth).GenerateAccessTokenWithTTL(e.EmployeeID, e.Role, ttl)
			if err != nil {
				return fmt.Errorf("签发 Token 失败: %w", err)
			}

			return printResult(cmd.OutOrStdout(), flags, map[string]interface{}{
				"employee_id": e.EmployeeID,
				"role":        e.Role,
				"expires_in":  int64(ttl / time.Second),
				"token":       token,
			}, token)
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee", "", "员工 ID")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "有效期")

	return cmd
}
