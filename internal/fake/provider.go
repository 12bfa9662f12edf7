package fake

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "event-booking-seeder/pkg/app_errors"

	"github.com/brianvoe/gofakeit/v6"
)

// Provider 隨機假資料來源（名稱、email、日期、數字）
type Provider interface {
	Name() string
	Email() string
	Phone() string
	Company() string
	Word() string
	Address() string
	Text(maxLen int) string
	DateBetween(start, end time.Time) time.Time
	IntRange(min, max int) int
	Float64Range(min, max float64) float64
	Bool() bool
	Intn(n int) int
}

type GofakeitProvider struct {
	f *gofakeit.Faker
}

// New 建立 Provider；seed 為 0 時使用隨機種子
func New(seed int64) Provider {
	return &GofakeitProvider{f: gofakeit.New(seed)}
}

func (p *GofakeitProvider) Name() string    { return p.f.Name() }
func (p *GofakeitProvider) Email() string   { return strings.ToLower(p.f.Email()) }
func (p *GofakeitProvider) Phone() string   { return p.f.Phone() }
func (p *GofakeitProvider) Company() string { return p.f.Company() }
func (p *GofakeitProvider) Word() string    { return p.f.Word() }
func (p *GofakeitProvider) Bool() bool      { return p.f.Bool() }

func (p *GofakeitProvider) Address() string {
	return p.f.Address().Address
}

// Text 產生不超過 maxLen 字元的句子
func (p *GofakeitProvider) Text(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	var b strings.Builder
	for b.Len() < maxLen {
		s := p.f.Sentence(p.f.IntRange(4, 12))
		if b.Len() > 0 {
			if b.Len()+1+len(s) > maxLen {
				break
			}
			b.WriteByte(' ')
		} else if len(s) > maxLen {
			return strings.TrimSpace(s[:maxLen-1]) + "."
		}
		b.WriteString(s)
	}
	return b.String()
}

// DateBetween 回傳 [start, end] 之間的 UTC 時間，精度截到毫秒（與 BSON datetime 一致）
func (p *GofakeitProvider) DateBetween(start, end time.Time) time.Time {
	if !end.After(start) {
		return start.UTC().Truncate(time.Millisecond)
	}
	return p.f.DateRange(start, end).UTC().Truncate(time.Millisecond)
}

func (p *GofakeitProvider) IntRange(min, max int) int {
	return p.f.IntRange(min, max)
}

func (p *GofakeitProvider) Float64Range(min, max float64) float64 {
	return p.f.Float64Range(min, max)
}

func (p *GofakeitProvider) Intn(n int) int {
	return p.f.Rand.Intn(n)
}

// Choice 均勻隨機挑一個（可重複挑中）
func Choice[T any](p Provider, items []T) T {
	return items[p.Intn(len(items))]
}

// Sample 不重複抽樣 k 個；k 超過母體大小回傳 ErrSampleTooLarge
func Sample[T any](p Provider, items []T, k int) ([]T, error) {
	if k < 0 || k > len(items) {
		return nil, fmt.Errorf("%w: k=%d, population=%d", apperrors.ErrSampleTooLarge, k, len(items))
	}
	// partial Fisher-Yates
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	out := make([]T, k)
	for i := 0; i < k; i++ {
		j := i + p.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = items[idx[i]]
	}
	return out, nil
}

// Round 四捨五入到 places 位小數
func Round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
