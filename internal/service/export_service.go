package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/moimene/time-control-hub-sub002/internal/model"
	"github.com/moimene/time-control-hub-sub002/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoViolations = errors.New("当前筛选条件下无违规记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：单 Sheet 平铺，一行一条违规，按日期倒序
type ExportService interface {
	// ExportViolations 导出违规记录为 Excel
	ExportViolations(ctx context.Context, companyID, status string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportViolations — 导出违规记录为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 表头: | 员工 | 部门 | 规则 | 严重级别 | 违规日期 | 状态 | 关键证据 |
//   - 关键证据列为证据 JSON 的摘要（限额/实际值等数值字段）
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportViolations(ctx context.Context, companyID, status string) (*bytes.Buffer, string, error) {
	violations, err := s.repo.Violation.ListAll(ctx, companyID, status)
	if err != nil {
		s.logger.Error("查询违规记录失败", zap.Error(err))
		return nil, "", err
	}
	if len(violations) == 0 {
		return nil, "", ErrExportNoViolations
	}

	// 批量解析员工姓名，避免逐行查询
	names := make(map[string]*model.Employee)
	for i := range violations {
		names[violations[i].EmployeeID] = nil
	}
	for employeeID := range names {
		emp, err := s.repo.Employee.GetByID(ctx, employeeID)
		if err != nil {
			s.logger.Warn("解析员工姓名失败", zap.String("employee_id", employeeID), zap.Error(err))
			continue
		}
		names[employeeID] = emp
	}

	sort.Slice(violations, func(i, j int) bool {
		return violations[i].ViolationDate.After(violations[j].ViolationDate)
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "违规记录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 18)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 22)
	f.SetColWidth(sheetName, "D", "D", 10)
	f.SetColWidth(sheetName, "E", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 14)
	f.SetColWidth(sheetName, "G", "G", 48)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"员工", "部门", "规则", "严重级别", "违规日期", "状态", "关键证据"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for i := range violations {
		v := &violations[i]

		name, dept := v.EmployeeID, ""
		if emp := names[v.EmployeeID]; emp != nil {
			name = emp.FullName()
			if emp.Department != nil {
				dept = *emp.Department
			}
		}

		f.SetCellValue(sheetName, cell("A", row), name)
		f.SetCellValue(sheetName, cell("B", row), dept)
		f.SetCellValue(sheetName, cell("C", row), v.RuleCode)
		f.SetCellValue(sheetName, cell("D", row), v.Severity)
		f.SetCellValue(sheetName, cell("E", row), v.ViolationDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("F", row), v.Status)
		f.SetCellValue(sheetName, cell("G", row), evidenceSummary(v.EvidenceJSON))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("违规记录_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// evidenceSummary 提取证据中的数值字段拼接摘要
func evidenceSummary(evidence model.JSONMap) string {
	summary := ""
	for _, key := range []string{"limit", "actual", "required_hours", "actual_hours", "max_rest_found", "overtime_ytd", "excess_hours", "session_hours"} {
		if val, ok := evidence[key]; ok {
			if summary != "" {
				summary += ", "
			}
			summary += fmt.Sprintf("%s=%v", key, val)
		}
	}
	return summary
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
