// Package domain contains per-account summarization prompt templates.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PromptTemplate is the instruction block prepended to every summary request
// for the owning account.
type PromptTemplate struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Email     string       `gorm:"type:text;not null;uniqueIndex:ux_prompts_email"`
	Body      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PromptTemplate) TableName() string { return "prompts" }

// DefaultTemplate is used for accounts that never customized their prompt.
const DefaultTemplate = `Étant donné des notes médicales ou une transcription, produisez un résumé concis dans un format médical standard :
- Aucune duplication d'information entre les sections.
- Tous les résultats de laboratoire doivent uniquement apparaître dans la section "Labs".
- Toutes les actions ou éléments futurs (par exemple, tests prévus, références, suivis) doivent être inclus dans la section "Plan d'action".
**Sections :**
- **RC** : Raison de la visite/consultation (doit être un titre court, pas une phrase complète ; les détails seront fournis dans d'autres sections).
- **HMA** : Plaintes du patient, antécédents, contexte (sous-sections pour les systèmes pertinents uniquement).
- **Traitements essayés** : Liste.
- **Examen physique** : Liste.
- **Labs** : Tous les résultats de laboratoire (liste).
- **Imagerie** : Liste.
- **Diagnostic/Impression** : Liste.
- **Plan d'action** : Liste (inclut toutes les actions ou éléments futurs).`
