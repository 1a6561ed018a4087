package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gatepass/backend/internal/model"
)

func newEmployeeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "维护员工目录",
	}
	cmd.AddCommand(newEmployeeUpsertCmd(flags))
	return cmd
}

func newEmployeeUpsertCmd(flags *globalFlags) *cobra.Command {
	var e model.Employee

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "新增或更新员工",
		Long: `新增或更新员工（按 ID 匹配）。未指定 --id 时生成新 ID。
角色: employee, lobby_attendant, admin

示例:
  gatepassctl employee upsert --name Alice --email alice@corp.example
  gatepassctl employee upsert --id 7d0c... --name Lena --email lena@corp.example --role lobby_attendant`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.Name = strings.TrimSpace(e.Name)
			e.Email = strings.TrimSpace(e.Email)
			if e.Name == "" || e.Email == "" {
				return fmt.Errorf("--name 与 --email 不能为空")
			}
			if !model.ValidRole(e.Role) {
				return fmt.Errorf("无效的角色: %s", e.Role)
			}
			if e.EmployeeID == "" {
				e.EmployeeID = uuid.NewString()
			}

			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.repo.Employee.Upsert(cmd.Context(), &e); err != nil {
				return fmt.Errorf("保存员工失败: %w", err)
			}
			return printResult(cmd.OutOrStdout(), flags, e,
				fmt.Sprintf("%s\t%s\t%s\t%s", e.EmployeeID, e.Name, e.Email, e.Role))
		},
	}

	cmd.Flags().StringVar(&e.EmployeeID, "id", "", "员工 ID（外部账号体系中的 ID）")
	cmd.Flags().StringVar(&e.Name, "name", "", "姓名")
	cmd.Flags().StringVar(&e.Email, "email", "", "邮箱，用于接收通知")
	cmd.Flags().StringVar(&e.Role, "role", model.RoleEmployee, "角色")

	return cmd
}
