// Package catalog holds the static module and mode registries and the
// random module selector.
package catalog

import (
	"github.com/stemsi/exsim-backend/internal/model"
)

var modules = []model.Module{
	// ─── Memory ────────────────────────────────────────────────────────
	{ID: "cosmic-memory", Title: "Kozmik Hafıza", Link: "/games/kozmik-hafiza", SkillCode: "5.4.2 Görsel Kısa Süreli Bellek", Category: model.CategoryMemory, TimeLimit: 120, Active: true},
	{ID: "n-back", Title: "N-Geri Şifresi", Link: "/games/n-geri-sifresi", SkillCode: "5.9.2 Çalışma Belleği", Category: model.CategoryMemory, TimeLimit: 150, Active: true},
	{ID: "cross-match", Title: "Çapraz Eşleşme", Link: "/games/capraz-eslesme", SkillCode: "5.9.1 Çalışma Belleği", Category: model.CategoryMemory, TimeLimit: 120, Active: true},
	{ID: "symbol-match", Title: "Şekil Hafızası", Link: "/games/sekil-hafizasi", SkillCode: "5.4.2 Görsel Kısa Süreli Bellek", Category: model.CategoryMemory, TimeLimit: 90, Active: true},
	{ID: "auditory-memory", Title: "İşitsel Hafıza", Link: "/games/isitsel-hafiza", SkillCode: "5.4.1 Sayısal Kısa Süreli Bellek", Category: model.CategoryMemory, TimeLimit: 120, Active: true},
	{ID: "sayi-sihirbazi", Title: "Sayı Sihirbazı", Link: "/games/sayi-sihirbazi", SkillCode: "5.9.1 Çalışma Belleği (Güncelleme)", Category: model.CategoryMemory, TimeLimit: 120, Active: true},
	{ID: "target-grid", Title: "Hedef Sayı", Link: "/games/hedef-sayi", SkillCode: "5.2.2 Matematiksel Problem Çözme", Category: model.CategoryMemory, TimeLimit: 90, Active: true},
	{ID: "reflection-sum", Title: "Yansıma Toplamı", Link: "/games/yansima-toplami", SkillCode: "5.9.2 Çalışma Belleği (Ters Sıralı)", Category: model.CategoryMemory, TimeLimit: 120, Active: true},
	{ID: "dual-bind", Title: "Çift Mod Hafıza", Link: "/games/cift-mod-hafiza", SkillCode: "5.9.1 Çalışma Belleği (Bağlama)", Category: model.CategoryMemory, TimeLimit: 120, Active: true},

	// ─── Logic ─────────────────────────────────────────────────────────
	{ID: "number-sequence", Title: "Sayısal Dizi", Link: "/games/sayisal-dizi", SkillCode: "5.2.1 Sayısal Dizi Tamamlama", Category: model.CategoryLogic, TimeLimit: 90, Active: true},
	{ID: "matrix-echo", Title: "Matris Yankısı", Link: "/games/matris-yankisi", SkillCode: "5.3.2 Desen Analizi", Category: model.CategoryLogic, TimeLimit: 120, Active: true},
	{ID: "puzzle-master", Title: "Puzzle Master", Link: "/games/puzzle-master", SkillCode: "5.3.2 Desen Analizi", Category: model.CategoryLogic, TimeLimit: 120, Active: true},
	{ID: "number-cipher", Title: "Sayısal Şifre", Link: "/games/sayisal-sifre", SkillCode: "5.2.3 Soyut Sayısal Mantık", Category: model.CategoryLogic, TimeLimit: 150, Active: true},
	{ID: "gorsel-cebir-dengesi", Title: "Görsel Cebir Dengesi", Link: "/games/gorsel-cebir-dengesi", SkillCode: "5.5.2 Kural Çıkarsama", Category: model.CategoryLogic, TimeLimit: 120, Active: true},
	{ID: "patterniq-express", Title: "PatternIQ Express", Link: "/games/patterniq-express", SkillCode: "5.5.1 Örüntü Analizi", Category: model.CategoryLogic, TimeLimit: 120, Active: true},

	// ─── Attention ─────────────────────────────────────────────────────
	{ID: "stroop", Title: "Stroop Etkisi", Link: "/games/stroop", SkillCode: "5.8.1 Bilişsel Esneklik", Category: model.CategoryAttention, TimeLimit: 90, Active: true},
	{ID: "visual-scanning", Title: "Görsel Tarama", Link: "/games/gorsel-tarama", SkillCode: "5.7.1 Seçici Dikkat", Category: model.CategoryAttention, TimeLimit: 90, Active: true},
	{ID: "noise-filter", Title: "Gürültü Filtresi", Link: "/games/gurultu-filtresi", SkillCode: "5.7.1 Seçici Dikkat", Category: model.CategoryAttention, TimeLimit: 120, Active: true},

	// ─── Verbal ────────────────────────────────────────────────────────
	{ID: "verbal-analogy", Title: "Sözel Analoji", Link: "/games/sozel-analoji", SkillCode: "5.1.2 Sözel Analoji", Category: model.CategoryVerbal, TimeLimit: 90, Active: true},
	{ID: "synonym", Title: "Eş Anlam", Link: "/games/es-anlam", SkillCode: "5.1.1 Kelime Bilgisi", Category: model.CategoryVerbal, TimeLimit: 90, Active: true},
	{ID: "sentence-synonym", Title: "Cümle İçi Eş Anlam", Link: "/games/cumle-ici-es-anlam", SkillCode: "5.1.3 Sözlü Anlama", Category: model.CategoryVerbal, TimeLimit: 90, Active: true},
	{ID: "knowledge-card", Title: "Bilgi Kartları", Link: "/games/bilgi-kartlari", SkillCode: "5.1.4 Bilgi (Genel Kültür)", Category: model.CategoryVerbal, TimeLimit: 120, Active: true},

	// ─── Speed ─────────────────────────────────────────────────────────
	{ID: "digit-symbol", Title: "Simge Kodlama", Link: "/games/simge-kodlama", SkillCode: "5.6.1 İşlem Hızı", Category: model.CategorySpeed, TimeLimit: 90, Active: true},
	{ID: "reaction-time", Title: "Tepki Süresi", Link: "/games/tepki-suresi", SkillCode: "5.6.1 İşlem Hızı", Category: model.CategorySpeed, TimeLimit: 60, Active: true},

	// ─── Perception ────────────────────────────────────────────────────
	{ID: "pattern-painter", Title: "Desen Boyama", Link: "/games/desen-boyama", SkillCode: "5.3.2 Desen Analizi", Category: model.CategoryPerception, TimeLimit: 120, Active: true},
	{ID: "shadow-detective", Title: "Gölge Dedektifi", Link: "/games/golge-dedektifi", SkillCode: "5.3.1 Şekil Eşleştirme", Category: model.CategoryPerception, TimeLimit: 90, Active: true},

	// ─── Social ────────────────────────────────────────────────────────
	{ID: "face-expression", Title: "Yüz İfadesi", Link: "/games/yuz-ifadesi", SkillCode: "5.10.1 Sosyal Zeka", Category: model.CategorySocial, TimeLimit: 90, Active: true},
}

// Modules returns a copy of the full catalog, inactive modules included.
func Modules() []model.Module {
	return append([]model.Module(nil), modules...)
}

// Active filters mods down to the modules marked active, keeping order.
func Active(mods []model.Module) []model.Module {
	out := make([]model.Module, 0, len(mods))
	for _, m := range mods {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// Find looks a module up by id.
func Find(mods []model.Module, id string) (model.Module, bool) {
	for _, m := range mods {
		if m.ID == id {
			return m, true
		}
	}
	return model.Module{}, false
}

// CountByCategory counts the active modules in each category.
// Every known category is present in the result, even with a zero count.
func CountByCategory(mods []model.Module) map[model.Category]int {
	counts := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		counts[c] = 0
	}
	for _, m := range mods {
		if m.Active {
			counts[m.Category]++
		}
	}
	return counts
}
