package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName(rng *rand.Rand) string {
	surname := commonSurnames[rng.Intn(len(commonSurnames))]
	nameLength := rng.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rng.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleAdmin,
	domain.RolePlanner,
	domain.RoleViewer,
}

var digits = "0123456789"

// GenerateUsernameFromChineseName 取每个字拼音的前若干个字母，再加上 1 到 3 位数字
func GenerateUsernameFromChineseName(rng *rand.Rand, chineseName string) string {
	username := ""
	for _, py := range pinyin.LazyConvert(chineseName, nil) {
		length := rng.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rng.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rng.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(rng *rand.Rand, password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName(rng)
	username := GenerateUsernameFromChineseName(rng, fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         roles[rng.Intn(len(roles))],
	}, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	password := make([]rune, length)
	for i := range password {
		password[i] = letters[rand.Intn(len(letters))]
	}
	return string(password)
}

// 随机问题使用的班次：早、白、晚、夜
var randomShifts = []domain.ShiftType{
	{Name: "E", Duration: 480},
	{Name: "D", Duration: 480, NotFollowedBy: []string{"E"}},
	{Name: "L", Duration: 480, NotFollowedBy: []string{"E", "D"}},
	{Name: "N", Duration: 600, NotFollowedBy: []string{"E", "D", "L"}},
}

// GenerateRandomProblem 随机生成一个排班问题，员工以中文姓名命名
// 生成的问题总能通过 ValidateProblem，但不保证存在可行解
func GenerateRandomProblem(rng *rand.Rand, weeks int, employeeCount int) *domain.Problem {
	days := weeks * 7

	shifts := make([]domain.ShiftType, len(randomShifts))
	for i, shift := range randomShifts {
		shifts[i] = domain.ShiftType{
			Name:          shift.Name,
			Duration:      shift.Duration,
			NotFollowedBy: append([]string(nil), shift.NotFollowedBy...),
		}
	}

	p := &domain.Problem{
		Name:   fmt.Sprintf("随机问题-%d周-%d人", weeks, employeeCount),
		Days:   days,
		Shifts: shifts,
	}

	used := make(map[string]bool, employeeCount)
	for i := 0; i < employeeCount; i++ {
		name := GenerateRandomChineseName(rng)
		for used[name] {
			name = fmt.Sprintf("%s%d", name, i)
		}
		used[name] = true

		p.Employees = append(p.Employees, randomEmployee(rng, name, days, shifts))
	}

	for day := 0; day < days; day++ {
		for _, shift := range shifts {
			if rng.Intn(4) == 0 {
				continue
			}
			p.Covers = append(p.Covers, domain.CoverRequirement{
				Day:         day,
				Shift:       shift.Name,
				Requirement: rng.Intn(max(employeeCount/len(shifts), 1)) + 1,
				UnderWeight: 100,
				OverWeight:  1,
			})
		}
	}

	return p
}

func randomEmployee(rng *rand.Rand, name string, days int, shifts []domain.ShiftType) domain.Employee {
	weeks := days / 7
	maxMinutes := weeks * 5 * 480
	maxConsecutive := rng.Intn(3) + 4 // 4~6

	e := domain.Employee{
		Name:                  name,
		MaxShifts:             make(map[string]int, len(shifts)),
		MaxTotalMinutes:       maxMinutes,
		MinTotalMinutes:       maxMinutes * 3 / 4,
		MaxConsecutiveShifts:  maxConsecutive,
		MinConsecutiveShifts:  rng.Intn(2) + 2, // 2~3
		MinConsecutiveDaysOff: rng.Intn(2) + 1, // 1~2
		MaxWeekends:           (weeks + 1) / 2,
	}
	for _, shift := range shifts {
		e.MaxShifts[shift.Name] = rng.Intn(days/2+1) + 1
	}

	// 每周最多一天强制休息
	for week := 0; week < weeks; week++ {
		if rng.Intn(2) == 0 {
			e.DaysOff = append(e.DaysOff, week*7+rng.Intn(7))
		}
	}

	for i := rng.Intn(3); i > 0; i-- {
		e.ShiftOnRequests = append(e.ShiftOnRequests, randomRequest(rng, days, shifts))
	}
	for i := rng.Intn(3); i > 0; i-- {
		e.ShiftOffRequests = append(e.ShiftOffRequests, randomRequest(rng, days, shifts))
	}

	return e
}

func randomRequest(rng *rand.Rand, days int, shifts []domain.ShiftType) domain.ShiftRequest {
	return domain.ShiftRequest{
		Day:    rng.Intn(days),
		Shift:  shifts[rng.Intn(len(shifts))].Name,
		Weight: rng.Intn(3) + 1,
	}
}
