package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/parser"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
)

// 实例文件的扩展名
const instanceExt = ".txt"

// LoadInstances 读取目录下所有的实例文件，问题名称为去掉扩展名的文件名
// 返回结果按文件名排序
func LoadInstances(dir string) ([]*domain.Problem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != instanceExt {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)

	problems := make([]*domain.Problem, 0, len(names))
	for _, name := range names {
		p, err := parser.ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		p.Name = strings.TrimSuffix(name, instanceExt)
		problems = append(problems, p)
	}

	return problems, nil
}

// SeedInstances 把目录下的实例文件全部导入数据库，返回成功导入的数量
func SeedInstances(ctx context.Context, r *repository.Repository, dir string) (int, error) {
	problems, err := LoadInstances(dir)
	if err != nil {
		return 0, fmt.Errorf("无法读取实例文件: %w", err)
	}

	cnt := 0
	for _, p := range problems {
		if err := r.CreateProblem(ctx, p); err != nil {
			slog.Error("插入排班问题失败", "name", p.Name, "error", err)
			continue
		}
		slog.Info("已插入排班问题", "id", p.ID, "name", p.Name)
		cnt++
	}

	return cnt, nil
}
