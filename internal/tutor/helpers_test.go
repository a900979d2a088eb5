package tutor_test

import (
	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

func scripted(responses ...string) (*oracle.Oracle, *ai.MockProvider) {
	mock := ai.NewScriptedProvider(responses...)
	return oracle.New(mock), mock
}

func fractionsDomain() tutor.DomainModel {
	return tutor.NewDomainModel([]tutor.Topic{
		{Name: "soma_fracoes", Explanation: "Some os numeradores.", Exercise: "Quanto é 1/2 + 1/4?", Prerequisites: []string{"denominador_comum"}},
		{Name: "denominador_comum", Explanation: "Um múltiplo compartilhado.", Exercise: "Qual o menor denominador comum de 1/3 e 1/5?"},
	}, []string{"denominador_comum", "soma_fracoes"})
}
