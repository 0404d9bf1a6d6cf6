package handler // handler package contains the game 2 quiz endpoints

import (
    "net/http" // http defines status codes
    "strconv"  // strconv converts the path param to an integer

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/iliyamo/salvambiente-api/internal/quiz" // quiz holds the static question set
)

const msgQuestionNotFound = "Pregunta no encontrada"

// QuizQuestions lists the game 2 questions in random order.
func QuizQuestions(c echo.Context) error {
    return c.JSON(http.StatusOK, quiz.Shuffled())
}

// QuizQuestion handles GET /juego2/questions/:id.
func QuizQuestion(c echo.Context) error {
    id, err := strconv.Atoi(c.Param("id"))
    if err != nil { // non-numeric ids cannot match any question
        return fail(c, http.StatusNotFound, msgQuestionNotFound)
    }
    q, ok := quiz.Lookup(id)
    if !ok {
        return fail(c, http.StatusNotFound, msgQuestionNotFound)
    }
    return c.JSON(http.StatusOK, q)
}

// QuizCheckAnswer grades one answer.
func QuizCheckAnswer(c echo.Context) error {
    var req struct {
        QuestionID int  `json:"questionId"`
        Answer     bool `json:"userAnswer"` // true/false questions only
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
    }
    v, ok := quiz.Check(req.QuestionID, req.Answer)
    if !ok {
        return fail(c, http.StatusNotFound, msgQuestionNotFound)
    }
    return c.JSON(http.StatusOK, v)
}
