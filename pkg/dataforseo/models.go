package dataforseo

// StatusOK is the DataForSEO status code for a successful call, used at
// both the response and the task level.
const StatusOK = 20000

// taskRequest is one element of the POST payload for the live/advanced
// endpoint. The API accepts an array of tasks; this client always sends
// exactly one.
type taskRequest struct {
	Keyword      string `json:"keyword"`
	LanguageCode string `json:"language_code"`
	LocationCode int    `json:"location_code"`
	Device       string `json:"device"`
}

// SerpResponse is the top-level response envelope.
type SerpResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []Task `json:"tasks"`
}

// Task carries the per-task status and SERP results.
type Task struct {
	ID            string       `json:"id"`
	StatusCode    int          `json:"status_code"`
	StatusMessage string       `json:"status_message"`
	Result        []TaskResult `json:"result"`
}

// TaskResult is one parsed results page.
type TaskResult struct {
	Keyword string `json:"keyword"`
	Type    string `json:"type"`
	Items   []Item `json:"items"`
}

// Item is a single SERP feature. PAA blocks have Type
// "people_also_ask" and carry their questions in nested Items.
type Item struct {
	Type  string    `json:"type"`
	Title string    `json:"title"`
	Items []PAAItem `json:"items"`
}

// PAAItem is one question inside a PAA block.
type PAAItem struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

// PAAQuestions flattens the people_also_ask question titles out of the
// response, in page order.
func (r *SerpResponse) PAAQuestions() []string {
	var questions []string
	for _, task := range r.Tasks {
		for _, result := range task.Result {
			for _, item := range result.Items {
				if item.Type != "people_also_ask" {
					continue
				}
				for _, paa := range item.Items {
					if paa.Type == "people_also_ask_element" && paa.Title != "" {
						questions = append(questions, paa.Title)
					}
				}
			}
		}
	}
	return questions
}
