package dataforseo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPAAQuestions_FlattensInPageOrder(t *testing.T) {
	raw := `{
		"status_code": 20000,
		"tasks": [{
			"status_code": 20000,
			"result": [{
				"keyword": "coffee",
				"items": [
					{"type": "organic", "title": "Some page"},
					{"type": "people_also_ask", "items": [
						{"type": "people_also_ask_element", "title": "What is coffee?"},
						{"type": "people_also_ask_element", "title": ""},
						{"type": "related_question", "title": "Ignored type"},
						{"type": "people_also_ask_element", "title": "Is coffee healthy?"}
					]},
					{"type": "people_also_ask", "items": [
						{"type": "people_also_ask_element", "title": "Second block question"}
					]}
				]
			}]
		}]
	}`

	var resp SerpResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	assert.Equal(t, []string{
		"What is coffee?",
		"Is coffee healthy?",
		"Second block question",
	}, resp.PAAQuestions())
}

func TestPAAQuestions_NoResults(t *testing.T) {
	resp := SerpResponse{StatusCode: StatusOK}
	assert.Empty(t, resp.PAAQuestions())

	resp.Tasks = []Task{{StatusCode: StatusOK, Result: nil}}
	assert.Empty(t, resp.PAAQuestions())
}
