package identity

import (
	"strings"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
)

// roster - фиксированный состав демо-пользователей. Порядок важен:
// FirstByDeptSubstring при промахе возвращает первый элемент.
var roster = []domain.Principal{
	{Name: "Rina S.", Role: "Staff", Department: "Logistics"},
	{Name: "Bambang W.", Role: "Manager", Department: "Production"},
	{Name: "Siti A.", Role: "Staff", Department: "Warehouse"},
	{Name: "John Doe", Role: "Expert Advisor", Department: "R&D"},
	{Name: "Yuki Tanaka", Role: "System Engineer", Department: "Engineering"},
	{Name: "Agus Pratama", Role: "Head of Finance", Department: "Finance"},
	{Name: "Sari Dewi", Role: "HR Specialist", Department: "HR"},
	{Name: "Budi Santoso", Role: "Security Officer", Department: "Core"},
	{Name: "Mega Putri", Role: "Logistics Admin", Department: "Logistics"},
	{Name: "Andi Wijaya", Role: "Foreman", Department: "Production"},
	{Name: "Sarah Connor", Role: "IT Infrastructure", Department: "Engineering"},
	{Name: "Michael V.", Role: "Operations Mgr", Department: "Warehouse"},
	{Name: "Linda Kusuma", Role: "Quality Control", Department: "Production"},
	{Name: "Hendra Setiawan", Role: "Legal Counsel", Department: "HR"},
	{Name: "Fanya Utami", Role: "Marketing Lead", Department: "R&D"},
	{Name: "Kevin Hart", Role: "External Consultant", Department: "Engineering"},
	{Name: "Dewi Sartika", Role: "Admin Staff", Department: "Logistics"},
	{Name: "Eko Prasetyo", Role: "Plant Manager", Department: "Production"},
}

// Catalog - неизменяемый каталог субъектов.
type Catalog struct {
	principals []domain.Principal
}

func NewCatalog() *Catalog {
	return &Catalog{principals: append([]domain.Principal(nil), roster...)}
}

// Random выбирает субъекта равномерно.
func (c *Catalog) Random(r infra.Random) domain.Principal {
	return c.principals[r.IntN(len(c.principals))]
}

// FirstByDeptSubstring ищет первого субъекта, чей отдел содержит s (без учета регистра).
// Пустая строка или промах дают первый элемент каталога.
func (c *Catalog) FirstByDeptSubstring(s string) domain.Principal {
	needle := strings.ToLower(s)
	for _, p := range c.principals {
		if strings.Contains(strings.ToLower(p.Department), needle) {
			return p
		}
	}
	return c.principals[0]
}

func (c *Catalog) All() []domain.Principal {
	return append([]domain.Principal(nil), c.principals...)
}

func (c *Catalog) Len() int { return len(c.principals) }
