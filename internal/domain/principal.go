package domain

// Principal - демо-пользователь из каталога или синтетический системный субъект.
type Principal struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"dept"`
}

// Department HR получает поблажку в скоринге и единственный имеет право WRITE.
const DeptHR = "HR"

// Синтетические субъекты событий ручного вмешательства и системных событий.
var (
	PrincipalSystem    = Principal{Name: "SYSTEM", Role: "ZTNA", Department: "GATEWAY"}
	PrincipalSOCAdmin  = Principal{Name: "SOC_ADMIN", Role: "Operator", Department: "CORE"}
	PrincipalSOCSystem = Principal{Name: "SOC_SYSTEM", Role: "Operator", Department: "CORE"}
	PrincipalSysHealth = Principal{Name: "SYS_HEALTH", Role: "Monitor", Department: "CORE"}
)

// SysLocal - локальный пользователь выбранного отдела (попытка открыть системные настройки).
func SysLocal(department string) Principal {
	return Principal{Name: "SYS_LOCAL", Role: "User", Department: department}
}
