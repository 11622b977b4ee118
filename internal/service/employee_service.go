package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"face-attendance/internal/dto"
	"face-attendance/internal/model"
	"face-attendance/internal/recognition"
	"face-attendance/internal/repository"
	pkgerrors "face-attendance/pkg/errors"
)

// ── 员工模块业务错误 ──

var (
	ErrEmployeeNotFound   = pkgerrors.New(pkgerrors.KindNotFound, "员工不存在")
	ErrEmployeeInactive   = pkgerrors.New(pkgerrors.KindValidation, "员工已停用")
	ErrDuplicateEmployee  = pkgerrors.New(pkgerrors.KindValidation, "工号或邮箱已存在")
	ErrEmployeeIDExists   = pkgerrors.New(pkgerrors.KindValidation, "工号已存在")
	ErrEmployeeEmailExist = pkgerrors.New(pkgerrors.KindValidation, "邮箱已被其他员工使用")
	ErrInvalidTemplate    = pkgerrors.New(pkgerrors.KindValidation, "人脸模板不能为空")
)

// EmployeeService 员工身份库业务接口
type EmployeeService interface {
	Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	Get(ctx context.Context, employeeID string) (*dto.EmployeeResponse, error)
	List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, int64, error)
	Update(ctx context.Context, employeeID string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	// Deactivate 软停用，历史考勤保留
	Deactivate(ctx context.Context, employeeID string) error
	// EnrollTemplate 整体替换员工的人脸模板
	EnrollTemplate(ctx context.Context, employeeID string, template []float32) (*dto.EmployeeResponse, error)
	// FindActiveWithTemplate 识别候选池：在职且已录入模板的员工
	FindActiveWithTemplate(ctx context.Context) ([]model.Employee, error)
}

type employeeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(repo *repository.Repository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ────────────────────── Create ──────────────────────

func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	employeeID := strings.TrimSpace(req.EmployeeID)
	email := normalizeEmail(req.Email)

	if _, err := s.repo.Employee.GetByEmployeeID(ctx, employeeID); err == nil {
		return nil, ErrEmployeeIDExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	if _, err := s.repo.Employee.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmployeeEmailExist
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询员工邮箱失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	employee := &model.Employee{
		EmployeeID: employeeID,
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Department: strings.TrimSpace(req.Department),
		Position:   strings.TrimSpace(req.Position),
		Active:     true,
		Timestamps: model.Timestamps{CreatedAt: now, UpdatedAt: now},
	}

	if err := s.repo.Employee.Create(ctx, employee); err != nil {
		// 唯一索引兜底并发创建
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmployee
		}
		s.logger.Error("创建员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("员工已创建", zap.String("employee_id", employeeID))
	return toEmployeeResponse(employee), nil
}

// ────────────────────── Get / List ──────────────────────

func (s *employeeService) Get(ctx context.Context, employeeID string) (*dto.EmployeeResponse, error) {
	employee, err := s.findByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

func (s *employeeService) List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, int64, error) {
	filter := repository.EmployeeFilter{
		Active:     req.Active,
		Department: req.Department,
		Keyword:    strings.TrimSpace(req.Keyword),
	}
	employees, total, err := s.repo.Employee.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出员工失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		result = append(result, *toEmployeeResponse(&employees[i]))
	}
	return result, total, nil
}

// ────────────────────── Update / Deactivate ──────────────────────

func (s *employeeService) Update(ctx context.Context, employeeID string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	employee, err := s.findByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != employee.Email {
			existing, err := s.repo.Employee.GetByEmail(ctx, email)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("查询员工邮箱失败", zap.Error(err))
				return nil, err
			}
			if existing != nil && existing.ID != employee.ID {
				return nil, ErrEmployeeEmailExist
			}
			employee.Email = email
		}
	}
	if req.Name != nil {
		employee.Name = strings.TrimSpace(*req.Name)
	}
	if req.Department != nil {
		employee.Department = strings.TrimSpace(*req.Department)
	}
	if req.Position != nil {
		employee.Position = strings.TrimSpace(*req.Position)
	}
	if req.Active != nil {
		employee.Active = *req.Active
	}
	employee.UpdatedAt = time.Now()

	if err := s.repo.Employee.Update(ctx, employee); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmployee
		}
		s.logger.Error("更新员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

func (s *employeeService) Deactivate(ctx context.Context, employeeID string) error {
	employee, err := s.findByEmployeeID(ctx, employeeID)
	if err != nil {
		return err
	}
	if !employee.Active {
		return nil
	}

	employee.Active = false
	employee.UpdatedAt = time.Now()
	if err := s.repo.Employee.Update(ctx, employee); err != nil {
		s.logger.Error("停用员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return err
	}

	s.logger.Info("员工已停用", zap.String("employee_id", employeeID))
	return nil
}

// ────────────────────── EnrollTemplate ──────────────────────

func (s *employeeService) EnrollTemplate(ctx context.Context, employeeID string, template []float32) (*dto.EmployeeResponse, error) {
	if !recognition.ValidSample(template) {
		return nil, ErrInvalidTemplate
	}

	employee, err := s.findByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.Employee.UpdateTemplate(ctx, employee.ID, template, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("录入人脸模板失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("人脸模板已录入", zap.String("employee_id", employeeID), zap.Int("dimensions", len(template)))

	employee.SetTemplate(template)
	employee.UpdatedAt = now
	return toEmployeeResponse(employee), nil
}

// ────────────────────── FindActiveWithTemplate ──────────────────────

func (s *employeeService) FindActiveWithTemplate(ctx context.Context) ([]model.Employee, error) {
	employees, err := s.repo.Employee.ListActiveWithTemplate(ctx)
	if err != nil {
		s.logger.Error("查询识别候选员工失败", zap.Error(err))
		return nil, err
	}
	return employees, nil
}

// ────────────────────── 内部方法 ──────────────────────

func (s *employeeService) findByEmployeeID(ctx context.Context, employeeID string) (*model.Employee, error) {
	employee, err := s.repo.Employee.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return employee, nil
}

// notFoundOr 将 gorm 的记录不存在转换为模块哨兵错误
func notFoundOr(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func toEmployeeResponse(e *model.Employee) *dto.EmployeeResponse {
	return &dto.EmployeeResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		Name:         e.Name,
		Email:        e.Email,
		Department:   e.Department,
		Position:     e.Position,
		Active:       e.Active,
		FaceEnrolled: e.HasTemplate(),
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    e.UpdatedAt.Format(time.RFC3339),
	}
}

func toEmployeeSummary(e *model.Employee) *dto.EmployeeSummary {
	if e == nil {
		return nil
	}
	return &dto.EmployeeSummary{
		EmployeeID: e.EmployeeID,
		Name:       e.Name,
		Department: e.Department,
	}
}
