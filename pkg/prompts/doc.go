// Package prompts builds the instructions given to the realtime interviewer
// and to a saved twin.
//
// The interviewer prompt lists the scripted questions, the follow-up budget
// and the profile block format that the session detector looks for. Question
// sets can be loaded from YAML:
//
//	questions:
//	  - "Da dove vieni e qual è stato il tuo percorso fino ad oggi?"
//	  - "Cosa fai davvero nel tuo lavoro, senza usare il job title?"
//	follow_up_questions: 2
//	completion_phrases:
//	  - "abbiamo finito"
package prompts
