package handlers

import (
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/utils"
)

// warningUnavailable 数据库不可用时读路径统一携带的警告文案
const warningUnavailable = "Datos de demostración - base de datos no disponible"

// 读路径的静态兜底数据：数据库挂掉时客户端仍能渲染界面，
// 响应里带warning字段提示这是演示数据。

func fallbackUsers() []models.UserProfile {
	return []models.UserProfile{
		{ID: 3, IDUsuario: 3, Nombre: "Lucía Martínez", Email: "lucia@example.com", Activo: true},
	}
}

func fallbackReports() []models.ReportView {
	return []models.ReportView{
		{
			ID:          1,
			Titulo:      "Bache en la calle principal",
			Title:       "Bache en la calle principal",
			Descripcion: "Bache de gran tamaño frente al mercado central",
			Description: "Bache de gran tamaño frente al mercado central",
			Ubicacion:   "San Salvador, El Salvador",
			Location:    "San Salvador, El Salvador",
			Categoria:   "infraestructura",
			Category:    "infraestructura",
			Status:      models.DefaultReportStatus,
			Priority:    models.DefaultReportPriority,
		},
		{
			ID:          2,
			Titulo:      "Luminaria dañada",
			Title:       "Luminaria dañada",
			Descripcion: "Poste de luz sin funcionar desde hace una semana",
			Description: "Poste de luz sin funcionar desde hace una semana",
			Ubicacion:   "Colonia Escalón",
			Location:    "Colonia Escalón",
			Categoria:   "alumbrado",
			Category:    "alumbrado",
			Status:      models.DefaultReportStatus,
			Priority:    models.DefaultReportPriority,
		},
	}
}

func fallbackCommunities() []models.CommunityView {
	return []models.CommunityView{
		{
			Community: models.Community{
				ID:          1,
				IDUsuario:   3,
				Nombre:      "Vecinos de San Salvador",
				Descripcion: "Comunidad general de reportes ciudadanos",
				Categoria:   "general",
				Estado:      "activa",
			},
			MemberCount: 12,
		},
	}
}

func fallbackStats() utils.M {
	return utils.M{
		"stats": models.ReportStats{
			Total:     2,
			Pending:   2,
			Estimated: true,
		},
		"warning": warningUnavailable,
	}
}
