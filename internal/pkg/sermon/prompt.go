package sermon

import (
	"fmt"
	"regexp"
	"strings"
)

// Sermon types offered by the wizard.
const (
	TypeExpository = "Expositivo"
	TypeTextual    = "Textual"
	TypeThematic   = "Temático"
)

// PromptConfig is the structure instruction and token budget for one
// type/duration combination.
type PromptConfig struct {
	Structure string
	MaxTokens int
}

var fallbackConfig = PromptConfig{
	Structure: "Gere um sermão completo com exegese e aplicação prática.",
	MaxTokens: 2000,
}

// promptTable maps sermon type and duration onto the prompt shape. The
// instructions are intentionally in Portuguese; the product generates
// Portuguese sermons.
var promptTable = map[string]map[string]PromptConfig{
	TypeExpository: {
		"Entre 1 e 10 min":  {Structure: "Siga esta estrutura: 1. Uma linha objetiva com o Tema. 2. Uma linha objetiva com o contexto do texto bíblico. 3. Uma linha objetiva com a Aplicação Prática.", MaxTokens: 450},
		"Entre 10 e 20 min": {Structure: "Siga esta estrutura: Desenvolva um único parágrafo muitíssimo breve e objetivo contendo uma introdução, a explicação da ideia central do texto bíblico e uma aplicação.", MaxTokens: 750},
		"Entre 20 e 30 min": {Structure: "Siga esta estrutura: 1. Introdução (um parágrafo curto). 2. Contexto do texto bíblico (um parágrafo curto). 3. Exegese do bloco textual (um parágrafo curto). 4. Aplicação Prática (um parágrafo curto). 5. Conclusão (um parágrafo curto).", MaxTokens: 1200},
		"Entre 30 e 40 min": {Structure: "Siga esta estrutura: 1. Introdução com ilustração. 2. Contexto do livro e da passagem bíblica. 3. Exegese verso a verso. 4. Aplicação para a vida pessoal. 5. Conclusão.", MaxTokens: 1900},
		"Entre 40 e 50 min": {Structure: "Siga esta estrutura: 1. Introdução detalhada (dois parágrafos curtos). 2. Contexto histórico e teológico (dois parágrafos curtos). 3. Exegese aprofundada do texto bíblico (dois parágrafos curtos). 4. Aplicações, pessoal e comunitária (dois parágrafos curtos). 5. Conclusão com apelo (dois parágrafos curtos).", MaxTokens: 2500},
		"Entre 50 e 60 min": {Structure: "Siga esta estrutura: 1. Introdução detalhada. 2. Grande Contexto Bíblico-Teológico. 3. Exegese minuciosa com análise de palavras no original. 4. Ilustrações. 5. Apontamentos para Cristo. 6. Aplicações multi-pastorais. 7. Conclusão e Oração.", MaxTokens: 3500},
		"Acima de 1 hora":   {Structure: "Siga esta estrutura: 1. Introdução Dramática. 2. Contexto Histórico-Cultural. 3. Discussão teológica. 4. Exegese exaustiva do texto bíblico, com múltiplas análises de palavras no original e curiosidades. 5. Referências Cruzadas. 6. Ilustrações Históricas. 7. Apontamentos para Cristo. 8. Aplicações profundas. 9. Conclusão missional com Apelo e Oração.", MaxTokens: 5000},
	},
	TypeTextual: {
		"Entre 1 e 10 min":  {Structure: "Siga esta estrutura: 1. Uma linha com a Leitura do Texto Bíblico-Base. 2. Uma linha com a ideia central. 3. Uma linha com a Aplicação.", MaxTokens: 450},
		"Entre 10 e 20 min": {Structure: "Siga esta estrutura: Desenvolva um único parágrafo muitíssimo breve e objetivo contendo uma introdução, a explicação do tema principal do texto bíblico e uma conclusão.", MaxTokens: 750},
		"Entre 20 e 30 min": {Structure: "Siga esta estrutura: 1. Introdução (um parágrafo curto). 2. Divisão do texto bíblico em 2 pontos, explicando cada um em um parágrafo curto. 3. Aplicação geral (um parágrafo curto). 4. Conclusão (um parágrafo curto).", MaxTokens: 1200},
		"Entre 30 e 40 min": {Structure: "Siga esta estrutura: 1. Introdução. 2. Divisão do texto bíblico em 3 pontos principais. 3. Desenvolvimento de cada ponto com uma explicação clara. 4. Aplicação para cada ponto. 5. Conclusão.", MaxTokens: 1900},
		"Entre 40 e 50 min": {Structure: "Siga esta estrutura: 1. Introdução com ilustração (dois parágrafos curtos). 2. Contexto da passagem bíblica (dois parágrafos curtos). 3. Divisão do texto bíblico em 3 pontos, com breve exegese (dois parágrafos curtos por ponto). 4. Aplicação (dois parágrafos curtos). 5. Conclusão com apelo (dois parágrafos curtos).", MaxTokens: 2500},
		"Entre 50 e 60 min": {Structure: "Siga esta estrutura: 1. Introdução. 2. Contexto. 3. Divisão do texto bíblico em pontos lógicos. 4. Desenvolvimento aprofundado de cada ponto. 5. Análise de palavras-chave. 6. Ilustrações. 7. Conclusão e Oração.", MaxTokens: 3500},
		"Acima de 1 hora":   {Structure: "Siga esta estrutura: 1. Introdução. 2. Contexto completo. 3. Divisão do texto bíblico em todos os seus pontos naturais. 4. Desenvolvimento exaustivo de cada ponto, com exegese e referências cruzadas. 5. Análise de palavras no original. 6. Múltiplas Aplicações. 7. Curiosidades. 8. Conclusão.", MaxTokens: 5000},
	},
	TypeThematic: {
		"Entre 1 e 10 min":  {Structure: "Siga esta estrutura: 1. Uma linha de Apresentação do Tema. 2. Uma linha de explanação com um versículo bíblico principal. 3. Uma linha de Aplicação.", MaxTokens: 450},
		"Entre 10 e 20 min": {Structure: "Siga esta estrutura: Desenvolva um único parágrafo muitíssimo breve e objetivo contendo uma introdução ao tema, um desenvolvimento com base em 2 textos bíblicos e uma aplicação.", MaxTokens: 750},
		"Entre 20 e 30 min": {Structure: "Siga esta estrutura: 1. Introdução ao tema (um parágrafo curto). 2. Desenvolvimento do tema usando 2 pontos, cada um com um texto bíblico de apoio (um parágrafo curto por ponto). 3. Aplicação (um parágrafo curto). 4. Conclusão (um parágrafo curto).", MaxTokens: 1200},
		"Entre 30 e 40 min": {Structure: "Siga esta estrutura: 1. Introdução ao tema. 2. Primeiro Ponto (com um texto bíblico de apoio). 3. Segundo Ponto (com outro texto bíblico de apoio). 4. Aplicação unificada. 5. Conclusão.", MaxTokens: 1900},
		"Entre 40 e 50 min": {Structure: "Siga esta estrutura: 1. Introdução com ilustração (dois parágrafos curtos). 2. Três pontos sobre o tema, cada um desenvolvido com um texto bíblico e uma breve explicação (dois parágrafos curtos por ponto). 3. Aplicações práticas (dois parágrafos curtos). 4. Conclusão (dois parágrafos curtos).", MaxTokens: 2500},
		"Entre 50 e 60 min": {Structure: "Siga esta estrutura: 1. Introdução. 2. Três pontos sobre o tema, cada um com texto, breve exegese e uma ilustração. 3. Aplicações para cada ponto. 4. Conclusão com apelo.", MaxTokens: 3500},
		"Acima de 1 hora":   {Structure: "Siga esta estrutura: 1. Introdução. 2. Exploração profunda do tema através de múltiplas passagens bíblicas. 3. Análise teológica e prática. 4. Ilustrações e aplicações robustas. 5. Conclusão e oração.", MaxTokens: 5000},
	},
}

var optionPrefixRe = regexp.MustCompile(`^[A-Z]\)\s*`)

// CleanOption strips the "A) " style prefix the wizard options carry.
func CleanOption(s string) string {
	return strings.TrimSpace(optionPrefixRe.ReplaceAllString(s, ""))
}

// LookupPromptConfig returns the prompt shape for a sermon type and duration,
// falling back to a generic configuration for unknown combinations.
func LookupPromptConfig(sermonType, duration string) PromptConfig {
	byDuration, ok := promptTable[CleanOption(sermonType)]
	if !ok {
		return fallbackConfig
	}
	cfg, ok := byDuration[duration]
	if !ok {
		return fallbackConfig
	}
	return cfg
}

// BuildPrompt assembles the final provider prompt from the wizard answers.
func BuildPrompt(topic, audience, sermonType string, cfg PromptConfig) string {
	return fmt.Sprintf("Gere um sermão do tipo %s para um público de %s sobre o tema %q. %s",
		CleanOption(sermonType), CleanOption(audience), topic, cfg.Structure)
}
