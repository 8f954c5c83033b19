package extract

import "strings"

const systemPrompt = "Sei un esperto nell'estrazione di profili cognitivi da interviste. Rispondi sempre SOLO con JSON valido."

func userPrompt(transcript, documents string) string {
	var sb strings.Builder
	sb.WriteString("Analizza questa trascrizione di intervista e ESTRAI un profilo dettagliato.\n\n")
	sb.WriteString("TRASCRIZIONE:\n")
	sb.WriteString(strings.TrimSpace(transcript))
	sb.WriteString("\n\n")
	if d := strings.TrimSpace(documents); d != "" {
		sb.WriteString("DOCUMENTI CARICATI:\n")
		sb.WriteString(d)
		sb.WriteString("\n\n")
	}
	sb.WriteString(`COMPITO:
Compila OGNI campo del profilo con informazioni estratte dalla trascrizione:
- identity_summary: 2-3 frasi su chi è la persona, ruolo, competenze, cosa fa
- thinking_patterns: 2-3 frasi su come ragiona quando risolve problemi
- methodology: 2-3 frasi su come lavora concretamente, strumenti, processi
- constraints: 1-2 frasi su principi, limiti, cosa evita di fare
- proof_metrics: 1-3 frasi su risultati concreti e impatto misurabile
- style_tone: 1-2 frasi su come comunica
- do_not_say: 3-5 cose SPECIFICHE non menzionate da NON inventare

REGOLE:
1. Scrivi in ITALIANO, in prima persona implicita
2. Usa SOLO informazioni dalla trascrizione e dai documenti
3. Se una sezione è poco coperta, scrivi quello che c'è comunque
4. NON inventare, ma SINTETIZZA quello che la persona ha effettivamente detto
5. Rispondi SOLO con il JSON, nessun altro testo`)
	return sb.String()
}
