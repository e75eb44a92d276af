package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/parser"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var weeks int
	var employees int
	var dir string
	var out string
	var seedValue int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机排班问题, 3: 导入实例目录, 4: 生成随机实例文件)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.IntVar(&weeks, "weeks", 4, "随机排班问题的周数")
	flag.IntVar(&employees, "employees", 12, "随机排班问题的员工数量")
	flag.StringVar(&dir, "dir", "./instances", "实例文件所在目录")
	flag.StringVar(&out, "out", "instance.txt", "生成的实例文件路径")
	flag.Int64Var(&seedValue, "seed", time.Now().UnixNano(), "随机种子")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rng := rand.New(rand.NewSource(seedValue))

	if weeks <= 0 || employees <= 0 {
		logger.Error("周数和员工数量必须大于 0")
		os.Exit(1)
	}

	// 生成实例文件不需要连接数据库
	if op == 4 {
		if err := writeInstance(out, utils.GenerateRandomProblem(rng, weeks, employees)); err != nil {
			logger.Error("无法生成实例文件", "error", err)
			os.Exit(1)
		}
		logger.Info("已生成实例文件", "path", out)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 {
			logger.Error("请输入合法的用户数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(rng, cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				logger.Error("无法生成随机用户", "error", err)
				continue
			}
			if err := repo.CreateUser(context.Background(), user); err != nil {
				logger.Error("无法插入用户", "error", err)
				continue
			}
			cnt++
		}

		logger.Info("插入用户成功", "count", cnt)
	case 2:
		if n <= 0 {
			logger.Error("请输入合法的排班问题数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			p := utils.GenerateRandomProblem(rng, weeks, employees)
			if err := repo.CreateProblem(context.Background(), p); err != nil {
				logger.Error("无法插入排班问题", "error", err)
				continue
			}
			cnt++
		}

		logger.Info("插入排班问题成功", "count", cnt)
	case 3:
		cnt, err := seed.SeedInstances(context.Background(), repo, dir)
		if err != nil {
			logger.Error("导入实例失败", "error", err)
			return
		}
		logger.Info("导入实例完成", "count", cnt)
	default:
		logger.Error("指定的操作非法")
	}
}

func writeInstance(path string, p *domain.Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := parser.Format(f, p); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
